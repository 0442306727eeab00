// Package extract fetches the per-creature document bundles concurrently,
// isolating failures so one bad item never aborts the batch.
package extract

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dexsync/dexsync/internal/pokeapi"
)

// Bundle is the raw fetch result for one item. Pokemon is always present;
// Species and Evolution degrade to nil when unavailable.
type Bundle struct {
	Name      string
	Pokemon   *pokeapi.PokemonDoc
	Species   *pokeapi.SpeciesDoc
	Evolution *pokeapi.EvolutionChainDoc
}

// Source is the subset of the API client the extractor needs.
type Source interface {
	Pokemon(ctx context.Context, name string) (*pokeapi.PokemonDoc, error)
	Species(ctx context.Context, name string) (*pokeapi.SpeciesDoc, error)
	EvolutionChain(ctx context.Context, url string) (*pokeapi.EvolutionChainDoc, error)
}

// Extractor runs the concurrent extract phase.
type Extractor struct {
	source      Source
	concurrency int
}

// New creates an Extractor with a bounded worker ceiling.
func New(source Source, concurrency int) *Extractor {
	if concurrency <= 0 {
		concurrency = 5
	}
	return &Extractor{source: source, concurrency: concurrency}
}

// Run fetches bundles for every named item. Items whose primary fetch fails
// are dropped and logged; the returned slice is in completion order, so
// consumers must key by id or name, never by position.
func (e *Extractor) Run(ctx context.Context, names []string) ([]Bundle, error) {
	log := zap.L().With(zap.String("component", "extract"))
	log.Info("starting extract phase",
		zap.Int("items", len(names)),
		zap.Int("concurrency", e.concurrency),
	)

	var mu sync.Mutex
	var bundles []Bundle
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, name := range names {
		g.Go(func() error {
			b, err := e.fetchBundle(gctx, name)
			if err != nil {
				failed.Add(1)
				log.Warn("item failed, skipping",
					zap.String("pokemon", name),
					zap.Error(err),
				)
				return nil // don't abort the batch on individual failure
			}
			mu.Lock()
			bundles = append(bundles, *b)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "extract: wait")
	}

	log.Info("extract phase complete",
		zap.Int("fetched", len(bundles)),
		zap.Int64("failed", failed.Load()),
	)
	return bundles, nil
}

// fetchBundle collects the three documents for one item. The primary and
// species fetches run concurrently; the chain fetch depends on the species
// document's embedded link. Only a primary failure fails the item.
func (e *Extractor) fetchBundle(ctx context.Context, name string) (*Bundle, error) {
	var (
		primary *pokeapi.PokemonDoc
		species *pokeapi.SpeciesDoc
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, err := e.source.Pokemon(gctx, name)
		if err != nil {
			return eris.Wrapf(err, "extract: primary fetch for %s", name)
		}
		primary = doc
		return nil
	})
	g.Go(func() error {
		doc, err := e.source.Species(gctx, name)
		if err != nil {
			// Species data is optional; the record degrades instead.
			zap.L().Warn("species fetch failed, record degrades",
				zap.String("pokemon", name),
				zap.Error(err),
			)
			return nil
		}
		species = doc
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := &Bundle{Name: name, Pokemon: primary, Species: species}

	if species != nil && species.EvolutionChain != nil && species.EvolutionChain.URL != "" {
		chain, err := e.source.EvolutionChain(ctx, species.EvolutionChain.URL)
		if err != nil {
			zap.L().Warn("evolution chain fetch failed, record degrades",
				zap.String("pokemon", name),
				zap.Error(err),
			)
		} else {
			b.Evolution = chain
		}
	}

	return b, nil
}
