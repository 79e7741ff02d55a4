package cache

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the cache counters, labelled by backend.
type Metrics struct {
	Hits          *prometheus.CounterVec
	Misses        *prometheus.CounterVec
	Stores        *prometheus.CounterVec
	Invalidations *prometheus.CounterVec
	Errors        *prometheus.CounterVec

	// families are the tag families counted under their own label value.
	families map[string]struct{}
}

// OtherTagFamily labels invalidations of tags outside the known families.
const OtherTagFamily = "other"

// NewMetrics registers the cache counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Hits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_cache_hits_total",
			Help: "Total number of cache lookups that found a live entry",
		}, []string{"backend"}),
		Misses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_cache_misses_total",
			Help: "Total number of cache lookups that found nothing",
		}, []string{"backend"}),
		Stores: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_cache_stores_total",
			Help: "Total number of values written to the cache",
		}, []string{"backend"}),
		Invalidations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_cache_invalidations_total",
			Help: "Total number of tag invalidations by tag family",
		}, []string{"backend", "tag_family"}),
		Errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "taskdeck_cache_errors_total",
			Help: "Total number of failed cache operations",
		}, []string{"backend", "operation"}),
	}
}

// WithTagFamilies sets the tag families reported by the invalidation
// counter. A tag's family is the text before its first ':' (or the whole
// tag); anything else is counted as OtherTagFamily, which keeps the label
// bounded whatever tags callers send.
func (m *Metrics) WithTagFamilies(families ...string) *Metrics {
	m.families = make(map[string]struct{}, len(families))
	for _, f := range families {
		m.families[f] = struct{}{}
	}
	return m
}

// TagFamily returns the invalidation counter label for tag.
func (m *Metrics) TagFamily(tag string) string {
	family, _, _ := strings.Cut(tag, ":")
	if _, ok := m.families[family]; ok {
		return family
	}
	return OtherTagFamily
}

// instrumented decorates a Cache with Metrics.
type instrumented struct {
	next    Cache
	backend string
	m       *Metrics
}

// Instrument returns c wrapped so every call updates m. backend labels the series.
func Instrument(c Cache, backend string, m *Metrics) Cache {
	if m == nil {
		return c
	}
	return &instrumented{next: c, backend: backend, m: m}
}

func (c *instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := c.next.Get(ctx, key)
	switch {
	case err != nil:
		c.m.Errors.WithLabelValues(c.backend, "get").Inc()
	case ok:
		c.m.Hits.WithLabelValues(c.backend).Inc()
	default:
		c.m.Misses.WithLabelValues(c.backend).Inc()
	}
	return v, ok, err
}

func (c *instrumented) Put(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	if err := c.next.Put(ctx, key, value, ttl, tags...); err != nil {
		c.m.Errors.WithLabelValues(c.backend, "put").Inc()
		return err
	}
	c.m.Stores.WithLabelValues(c.backend).Inc()
	return nil
}

func (c *instrumented) Invalidate(ctx context.Context, tags ...string) error {
	if err := c.next.Invalidate(ctx, tags...); err != nil {
		c.m.Errors.WithLabelValues(c.backend, "invalidate").Inc()
		return err
	}
	for _, tag := range tags {
		c.m.Invalidations.WithLabelValues(c.backend, c.m.TagFamily(tag)).Inc()
	}
	return nil
}
