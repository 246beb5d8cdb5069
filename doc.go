// Package apilocale localizes and caches backend API responses for the
// LAFAOM-MAO site.
//
// The package root holds the translation fetch client: a two-tier cached
// text translator that talks to a Lingva-style or OpenAI endpoint. The
// localize and httpcache packages provide the response translation and
// response cache stages as http.RoundTripper middleware, and the pipeline
// package wires them together. The gateway binary lives in
// cmd/lafaom-gateway.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "fmt"
//	    "time"
//
//	    "github.com/lafaom-mao/apilocale"
//	    "github.com/lafaom-mao/apilocale/cache"
//	    "github.com/lafaom-mao/apilocale/endpoint"
//	    "github.com/lafaom-mao/apilocale/store"
//	)
//
//	func main() {
//	    ep := endpoint.NewLingva(endpoint.LingvaConfig{
//	        BaseURL: "https://lingva.ml/api/v1",
//	    })
//
//	    client := apilocale.NewClient(ep,
//	        apilocale.WithMemoryCache(cache.NewMemoryCache(1000, time.Hour)),
//	        apilocale.WithPersistentCache(cache.NewPersistentCache(store.NewMemoryStore(0), apilocale.TranslationPrefix, 24*time.Hour)),
//	    )
//
//	    fmt.Println(client.Translate(context.Background(), "Bonjour le monde", "en")) // Hello world
//	}
package apilocale
