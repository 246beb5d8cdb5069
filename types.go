package apilocale

import "time"

// Storage key prefixes and scheme constants shared by the stages.
const (
	// SourceLang is the native language of the backend API.
	SourceLang = "fr"

	// CachePrefix prefixes every response cache key in the persistent store.
	CachePrefix = "LAFAOM_API_CACHE_"

	// TranslationPrefix prefixes every persisted translation record.
	TranslationPrefix = "LAFAOM_TRANSLATION_"

	// SchemeVersion tags response cache entries. Entries carrying any other
	// version are treated as stale.
	SchemeVersion = "1.0.0"
)

// Default tunables.
const (
	DefaultResponseTTL      = 5 * time.Minute
	DefaultMemoryTTL        = time.Hour
	DefaultPersistentTTL    = 24 * time.Hour
	DefaultMemoryEntries    = 1000
	DefaultChunkSize        = 500
	DefaultBatchConcurrency = 6
	DefaultRequestTimeout   = 20 * time.Second
	DefaultLocalizeDepth    = 8
	DefaultLocalizeWorkers  = 8
)

// TranslateRequest is a single text translation sent to an Endpoint.
type TranslateRequest struct {
	Text       string
	SourceLang string
	TargetLang string
}

// TranslationSource records where a translation was served from.
type TranslationSource string

const (
	SourceMemory     TranslationSource = "memory"
	SourcePersistent TranslationSource = "persistent"
	SourceEndpoint   TranslationSource = "endpoint"
	SourceFallback   TranslationSource = "fallback"
)

// TracerName names the OpenTelemetry tracer used across the module.
const TracerName = "github.com/lafaom-mao/apilocale"
