package localize

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/lafaom-mao/apilocale"
	"github.com/lafaom-mao/apilocale/internal/metrics"
	"github.com/lafaom-mao/apilocale/richtext"
)

// BatchTranslator translates texts in order, keeping the input on failure.
// *apilocale.Client implements it.
type BatchTranslator interface {
	TranslateBatch(ctx context.Context, texts []string, targetLang string) []string
}

// DepthExceededError is returned for records nested deeper than the limit.
type DepthExceededError struct {
	Depth int
	Max   int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("record nested at depth %d exceeds limit %d", e.Depth, e.Max)
}

// Translator localizes decoded JSON payloads.
type Translator struct {
	client   BatchTranslator
	rules    []Rule
	schemas  map[Type]Schema
	rich     *richtext.Processor
	maxDepth int
	workers  int
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Option configures a Translator.
type Option func(*Translator)

// WithRules replaces the detection table.
func WithRules(rules []Rule) Option {
	return func(t *Translator) {
		t.rules = rules
	}
}

// WithSchemas replaces the type schemas.
func WithSchemas(schemas map[Type]Schema) Option {
	return func(t *Translator) {
		t.schemas = schemas
	}
}

// WithMaxDepth sets the nesting limit (default 8).
func WithMaxDepth(n int) Option {
	return func(t *Translator) {
		if n > 0 {
			t.maxDepth = n
		}
	}
}

// WithWorkers bounds concurrent element translations per array (default 8).
func WithWorkers(n int) Option {
	return func(t *Translator) {
		if n > 0 {
			t.workers = n
		}
	}
}

// WithRichText sets the processor used for HTML-valued fields.
func WithRichText(p *richtext.Processor) Option {
	return func(t *Translator) {
		t.rich = p
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(t *Translator) {
		t.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(t *Translator) {
		t.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(t *Translator) {
		t.tracer = tracer
	}
}

// NewTranslator creates a Translator sending texts to client.
func NewTranslator(client BatchTranslator, opts ...Option) *Translator {
	t := &Translator{
		client:   client,
		rules:    DefaultRules(),
		schemas:  DefaultSchemas(),
		rich:     richtext.New(),
		maxDepth: apilocale.DefaultLocalizeDepth,
		workers:  apilocale.DefaultLocalizeWorkers,
		logger:   logrus.StandardLogger(),
		tracer:   otel.Tracer(apilocale.TracerName),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.WithField("component", "localize")
	return t
}

// Detect returns the type of obj under the configured rules.
func (t *Translator) Detect(obj map[string]any) Type {
	return Detect(t.rules, obj)
}

// TranslatePayload translates a decoded JSON body: an array of records, an
// object wrapping them under "data", or a single record. Anything else, and
// anything that fails, is returned unchanged. The input is never mutated.
func (t *Translator) TranslatePayload(ctx context.Context, payload any, lang string) any {
	ctx, span := t.tracer.Start(ctx, "localize.TranslatePayload", trace.WithAttributes(
		attribute.String("lang", lang),
	))
	defer span.End()

	return t.translatePayload(ctx, payload, lang, 0)
}

func (t *Translator) translatePayload(ctx context.Context, payload any, lang string, depth int) any {
	switch v := payload.(type) {
	case []any:
		return t.translateArray(ctx, v, lang, depth, TypeNone)
	case map[string]any:
		if data, ok := v["data"]; ok {
			switch data.(type) {
			case []any, map[string]any:
				if depth >= t.maxDepth {
					return v
				}
				out := maps.Clone(v)
				out["data"] = t.translatePayload(ctx, data, lang, depth+1)
				return out
			}
			return v
		}
		return t.translateRecord(ctx, v, lang, depth, TypeNone)
	default:
		return payload
	}
}

// TranslateObject translates obj as typ. It returns obj itself when typ has
// no schema.
func (t *Translator) TranslateObject(ctx context.Context, obj map[string]any, typ Type, lang string) (map[string]any, error) {
	return t.translateObjectSafe(ctx, obj, typ, lang, 0)
}

// translateRecord detects and translates one record, falling back to obj.
func (t *Translator) translateRecord(ctx context.Context, obj map[string]any, lang string, depth int, hint Type) any {
	typ := t.detect(obj, hint)
	if typ == TypeNone {
		return obj
	}
	out, err := t.translateObjectSafe(ctx, obj, typ, lang, depth)
	if err != nil {
		t.logger.WithError(err).WithFields(logrus.Fields{
			"type":  typ,
			"lang":  lang,
			"depth": depth,
		}).Debug("record left untranslated")
		return obj
	}
	return out
}

// translateArray detects the element type from the first element and
// translates every record element concurrently.
func (t *Translator) translateArray(ctx context.Context, arr []any, lang string, depth int, hint Type) any {
	if len(arr) == 0 {
		return arr
	}
	first, ok := arr[0].(map[string]any)
	if !ok {
		return arr
	}
	typ := t.detect(first, hint)
	if typ == TypeNone {
		return arr
	}

	out := make([]any, len(arr))
	var g errgroup.Group
	g.SetLimit(t.workers)
	for i, elem := range arr {
		obj, ok := elem.(map[string]any)
		if !ok {
			out[i] = elem
			continue
		}
		g.Go(func() error {
			translated, err := t.translateObjectSafe(ctx, obj, typ, lang, depth)
			if err != nil {
				t.logger.WithError(err).WithFields(logrus.Fields{
					"type":  typ,
					"index": i,
				}).Debug("element left untranslated")
				out[i] = obj
				return nil
			}
			out[i] = translated
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (t *Translator) detect(obj map[string]any, hint Type) Type {
	if typ := t.Detect(obj); typ != TypeNone {
		return typ
	}
	if _, ok := t.schemas[hint]; ok {
		return hint
	}
	return TypeNone
}

func (t *Translator) translateObjectSafe(ctx context.Context, obj map[string]any, typ Type, lang string, depth int) (out map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = obj, fmt.Errorf("panic translating %s record: %v", typ, r)
		}
	}()
	return t.translateObject(ctx, obj, typ, lang, depth)
}

// slot is a position of a text in a record: a string field, or an index
// into a string array field.
type slot struct {
	field string
	index int
}

func (t *Translator) translateObject(ctx context.Context, obj map[string]any, typ Type, lang string, depth int) (map[string]any, error) {
	if depth >= t.maxDepth {
		return obj, &DepthExceededError{Depth: depth, Max: t.maxDepth}
	}
	schema, ok := t.schemas[typ]
	if !ok {
		return obj, nil
	}

	out := maps.Clone(obj)

	var (
		texts []string
		slots []slot
		rich  []string
	)
	for _, field := range schema.Fields {
		switch v := obj[field].(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				continue
			}
			if richtext.IsHTML(v) {
				rich = append(rich, field)
				continue
			}
			texts = append(texts, v)
			slots = append(slots, slot{field: field, index: -1})
		case []any:
			for i, elem := range v {
				if s, ok := elem.(string); ok && strings.TrimSpace(s) != "" && !richtext.IsHTML(s) {
					texts = append(texts, s)
					slots = append(slots, slot{field: field, index: i})
				}
			}
		}
	}

	if len(texts) > 0 {
		translated := t.client.TranslateBatch(ctx, texts, lang)
		arrays := make(map[string][]any)
		for i, s := range slots {
			if i >= len(translated) {
				break
			}
			if s.index < 0 {
				out[s.field] = translated[i]
				continue
			}
			arr, ok := arrays[s.field]
			if !ok {
				arr = slices.Clone(obj[s.field].([]any))
				arrays[s.field] = arr
				out[s.field] = arr
			}
			arr[s.index] = translated[i]
		}
	}

	for _, field := range rich {
		translated, err := t.rich.Translate(ctx, t.client, obj[field].(string), lang)
		if err != nil {
			t.logger.WithError(err).WithField("field", field).Debug("html field left untranslated")
			continue
		}
		out[field] = translated
	}

	for _, field := range schema.Nested {
		switch v := obj[field].(type) {
		case map[string]any:
			out[field] = t.translateRecord(ctx, v, lang, depth+1, Type(field))
		case []any:
			out[field] = t.translateArray(ctx, v, lang, depth+1, Type(field))
		}
	}

	t.metrics.Localized(string(typ))
	return out, nil
}
