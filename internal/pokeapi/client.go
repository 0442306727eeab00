package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// ErrNotFound marks a 404 from the API. Callers use it to distinguish
// optional documents that simply don't exist from real failures.
var ErrNotFound = eris.New("pokeapi: not found")

// Options configures the API client.
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	RateLimit rate.Limit
	Burst     int
}

// Client fetches the three document kinds from the creature API.
// One client is shared read-only across all concurrent fetch tasks.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	opts    Options
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "dexsync/1.0"
	}
	if opts.RateLimit == 0 {
		opts.RateLimit = 10
	}
	if opts.Burst == 0 {
		opts.Burst = 10
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter: rate.NewLimiter(opts.RateLimit, opts.Burst),
		opts:    opts,
	}
}

// Pokemon fetches the primary document for the named creature.
func (c *Client) Pokemon(ctx context.Context, name string) (*PokemonDoc, error) {
	return getJSON[PokemonDoc](ctx, c, fmt.Sprintf("%s/pokemon/%s", c.opts.BaseURL, name))
}

// Species fetches the supplementary species document for the named creature.
func (c *Client) Species(ctx context.Context, name string) (*SpeciesDoc, error) {
	return getJSON[SpeciesDoc](ctx, c, fmt.Sprintf("%s/pokemon-species/%s", c.opts.BaseURL, name))
}

// EvolutionChain fetches the evolution-chain document at the URL embedded in
// a species document.
func (c *Client) EvolutionChain(ctx context.Context, url string) (*EvolutionChainDoc, error) {
	return getJSON[EvolutionChainDoc](ctx, c, url)
}

// getJSON performs a rate-limited GET and decodes the body. Failed fetches
// are terminal for their unit of work; there is no retry loop.
func getJSON[T any](ctx context.Context, c *Client, url string) (*T, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "pokeapi: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "pokeapi: create request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "pokeapi: get %s", url)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, eris.Wrapf(ErrNotFound, "pokeapi: get %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("pokeapi: unexpected status %d from %s", resp.StatusCode, url)
	}

	var doc T
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, eris.Wrapf(err, "pokeapi: decode %s", url)
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return &doc, nil
}
