package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lafaom-mao/apilocale"
	"github.com/lafaom-mao/apilocale/cache"
	"github.com/lafaom-mao/apilocale/endpoint"
	"github.com/lafaom-mao/apilocale/store"
)

const postsPage = `[{"id":1,"title":"Rentrée","content":"La rentrée approche"},{"id":2,"title":"Panne","content":"Texte"}]`

type fixture struct {
	backend      *httptest.Server
	translator   *httptest.Server
	backendHits  atomic.Int32
	endpointHits atomic.Int32
	store        *store.MemoryStore
	session      *apilocale.Session
	pipeline     *Pipeline
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{}

	f.backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.backendHits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, postsPage)
	}))
	t.Cleanup(f.backend.Close)

	// Lingva-style endpoint failing for "Panne"
	f.translator = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.endpointHits.Add(1)
		parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, "/"), "/", 3)
		if len(parts) != 3 || parts[2] == "Panne" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"translation": "[" + parts[1] + "] " + parts[2]})
	}))
	t.Cleanup(f.translator.Close)

	f.store = store.NewMemoryStore(0)
	client := apilocale.NewClient(
		endpoint.NewLingva(endpoint.LingvaConfig{BaseURL: f.translator.URL, Timeout: time.Second}),
		apilocale.WithMemoryCache(cache.NewMemoryCache(100, time.Hour)),
		apilocale.WithPersistentCache(cache.NewPersistentCache(f.store, apilocale.TranslationPrefix, 24*time.Hour)),
	)
	f.session = apilocale.NewSession("fr", []string{"fr", "en", "de"})

	opts = append([]Option{WithBackendHost(f.backend.Listener.Addr().String())}, opts...)
	f.pipeline = New(http.DefaultTransport, client, f.store, f.session, opts...)
	return f
}

func (f *fixture) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := f.pipeline.Client(5 * time.Second).Get(f.backend.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestPipeline_NativeLanguagePassThrough(t *testing.T) {
	f := newFixture(t)

	_, body := f.get(t, "/blog/posts?page=1")
	assert.Equal(t, postsPage, body)
	assert.Equal(t, int32(0), f.endpointHits.Load())

	raw, err := f.store.Get(context.Background(), "LAFAOM_API_CACHE_fr_GET_/blog/posts?page=1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, `{"data":`+postsPage+`,"timestamp":`))

	resp, again := f.get(t, "/blog/posts?page=1")
	assert.Equal(t, body, again)
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Equal(t, int32(1), f.backendHits.Load())
}

func TestPipeline_TranslatesAndCachesPerLanguage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.pipeline.SwitchLanguage(ctx, "en"))

	resp, body := f.get(t, "/blog/posts?page=1")
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))

	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "[en] Rentrée", items[0]["title"])
	assert.Equal(t, "[en] La rentrée approche", items[0]["content"])

	// endpoint failure on one field keeps the French text, siblings are translated
	assert.Equal(t, "Panne", items[1]["title"])
	assert.Equal(t, "[en] Texte", items[1]["content"])

	raw, err := f.store.Get(ctx, "LAFAOM_API_CACHE_en_GET_/blog/posts?page=1")
	require.NoError(t, err)
	assert.Contains(t, raw, "[en] Rentrée")

	hits := f.endpointHits.Load()
	resp, again := f.get(t, "/blog/posts?page=1")
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache"))
	assert.Equal(t, body, again)
	assert.Equal(t, int32(1), f.backendHits.Load())
	assert.Equal(t, hits, f.endpointHits.Load())
}

func TestPipeline_SwitchClearsPreviousLanguage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.Set(ctx, "LAFAOM_API_CACHE_de_GET_/other", `{"data":{},"timestamp":0,"version":"1.0.0"}`))

	f.get(t, "/blog/posts?page=1") // fr
	require.NoError(t, f.pipeline.SwitchLanguage(ctx, "en"))

	_, err := f.store.Get(ctx, "LAFAOM_API_CACHE_fr_GET_/blog/posts?page=1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.store.Get(ctx, "LAFAOM_API_CACHE_de_GET_/other")
	assert.NoError(t, err, "only the previous language is cleared")

	f.get(t, "/blog/posts?page=1") // en
	require.NoError(t, f.pipeline.SwitchLanguage(ctx, "de"))

	_, err = f.store.Get(ctx, "LAFAOM_API_CACHE_en_GET_/blog/posts?page=1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	resp, body := f.get(t, "/blog/posts?page=1")
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.Contains(t, body, "[de] Rentrée")
	assert.NotContains(t, body, "[en]")
	assert.Equal(t, "de", resp.Header.Get("Content-Language"))
}

func TestPipeline_ClearAllOnSwitch(t *testing.T) {
	f := newFixture(t, WithClearAllOnSwitch())
	ctx := context.Background()

	f.get(t, "/blog/posts?page=1")
	require.NoError(t, f.pipeline.SwitchLanguage(ctx, "en"))

	keys, err := f.store.Keys(ctx, apilocale.CachePrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)

	// translation records survive
	f.get(t, "/blog/posts?page=1")
	tkeys, err := f.store.Keys(ctx, apilocale.TranslationPrefix)
	require.NoError(t, err)
	assert.NotEmpty(t, tkeys)
}

func TestPipeline_UnsupportedLanguage(t *testing.T) {
	f := newFixture(t)

	err := f.pipeline.SwitchLanguage(context.Background(), "ja")
	assert.ErrorIs(t, err, apilocale.ErrUnsupportedLanguage)
	assert.Equal(t, "fr", f.pipeline.Session().Current())
}

func TestPipeline_RequestLanguageOverride(t *testing.T) {
	f := newFixture(t)

	req, err := http.NewRequestWithContext(apilocale.WithLanguage(context.Background(), "en"), http.MethodGet, f.backend.URL+"/blog/posts", nil)
	require.NoError(t, err)
	resp, err := f.pipeline.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "[en] Rentrée")
	assert.Equal(t, "fr", f.pipeline.Session().Current())

	_, err = f.store.Get(context.Background(), "LAFAOM_API_CACHE_en_GET_/blog/posts")
	assert.NoError(t, err)
}

func TestPipeline_BypassesUploads(t *testing.T) {
	f := newFixture(t)
	f.get(t, "/uploads/cv.pdf")
	f.get(t, "/uploads/cv.pdf")

	assert.Equal(t, int32(2), f.backendHits.Load())
	keys, _ := f.store.Keys(context.Background(), apilocale.CachePrefix)
	assert.Empty(t, keys)
}
