package apilocale

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// parallelLookup resolves texts against both cache tiers concurrently.
// It returns the hits keyed by text and the distinct misses in first-seen order.
func (c *Client) parallelLookup(ctx context.Context, texts []string, targetLang string) (map[string]string, []string) {
	type lookupResult struct {
		text   string
		value  string
		source TranslationSource
		found  bool
	}

	unique := make([]string, 0, len(texts))
	seen := make(map[string]bool, len(texts))
	for _, text := range texts {
		if !seen[text] {
			seen[text] = true
			unique = append(unique, text)
		}
	}

	results := make(chan lookupResult, len(unique))
	var wg sync.WaitGroup

	for _, text := range unique {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			value, source, ok := c.lookup(ctx, CacheKey(targetLang, text))
			results <- lookupResult{text: text, value: value, source: source, found: ok}
		}(text)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	hits := make(map[string]string)
	missed := make(map[string]bool)
	for result := range results {
		if result.found {
			hits[result.text] = result.value
			c.metrics.Translation(string(result.source))
		} else {
			missed[result.text] = true
		}
	}

	// Keep misses in input order
	misses := make([]string, 0, len(missed))
	for _, text := range unique {
		if missed[text] {
			misses = append(misses, text)
		}
	}

	return hits, misses
}

// fetchAll translates texts concurrently, bounded by the client concurrency.
// A failed entry keeps its original text and is not cached.
func (c *Client) fetchAll(ctx context.Context, texts []string, targetLang string) []string {
	out := make([]string, len(texts))

	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for i, text := range texts {
		g.Go(func() error {
			out[i] = c.fetchAndStore(ctx, text, targetLang)
			return nil
		})
	}
	_ = g.Wait()

	return out
}
