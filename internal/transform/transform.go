// Package transform maps raw document bundles into normalized records.
package transform

import (
	"strings"

	"golang.org/x/text/language"

	"github.com/dexsync/dexsync/internal/extract"
	"github.com/dexsync/dexsync/internal/model"
	"github.com/dexsync/dexsync/internal/pokeapi"
)

// flavorMatcher tolerates region subtags ("en-US") in flavor text entries.
var flavorMatcher = language.NewMatcher([]language.Tag{language.English})

// Record maps one bundle to exactly one normalized record. It never fails:
// missing species data degrades the dependent fields to empty/false/nil.
func Record(b extract.Bundle) model.Pokemon {
	p := b.Pokemon

	rec := model.Pokemon{
		ID:             p.ID,
		Name:           p.Name,
		Height:         p.Height,
		Weight:         p.Weight,
		BaseExperience: p.BaseExperience,
		SpriteURL:      p.Sprites.FrontDefault,
		ShinySpriteURL: p.Sprites.FrontShiny,
		Types:          make([]string, 0, len(p.Types)),
		Abilities:      make([]string, 0, len(p.Abilities)),
		Stats:          make(map[string]int, len(p.Stats)),
		Evolutions:     FlattenChain(b.Evolution),
	}

	for _, t := range p.Types {
		rec.Types = append(rec.Types, t.Type.Name)
	}
	for _, a := range p.Abilities {
		rec.Abilities = append(rec.Abilities, a.Ability.Name)
	}
	for _, s := range p.Stats {
		rec.Stats[s.Stat.Name] = s.BaseStat
	}

	if b.Species != nil {
		rec.FlavorText = flavorText(b.Species)
		rec.IsLegendary = b.Species.IsLegendary
		rec.IsMythical = b.Species.IsMythical
		if b.Species.Color != nil {
			rec.Color = &b.Species.Color.Name
		}
	}

	return rec
}

// Records maps a whole bundle list, preserving its order.
func Records(bundles []extract.Bundle) []model.Pokemon {
	records := make([]model.Pokemon, 0, len(bundles))
	for _, b := range bundles {
		records = append(records, Record(b))
	}
	return records
}

// flavorText returns the first English flavor text entry with embedded
// line-break and form-feed characters normalized to single spaces.
func flavorText(s *pokeapi.SpeciesDoc) *string {
	for _, entry := range s.FlavorTextEntries {
		if !isEnglish(entry.Language.Name) {
			continue
		}
		text := strings.NewReplacer("\n", " ", "\f", " ").Replace(entry.FlavorText)
		return &text
	}
	return nil
}

func isEnglish(locale string) bool {
	tag, err := language.Parse(locale)
	if err != nil {
		return false
	}
	_, _, conf := flavorMatcher.Match(tag)
	return conf >= language.High
}
