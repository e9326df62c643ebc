package telemetry

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when an instrument is built without a meter.
var ErrMeterNil = errors.New("telemetry: meter is nil")

// Counter wraps an int64 monotonic counter.
type Counter struct {
	counter metric.Int64Counter
}

// NewCounter creates a Counter.
func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	c, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, err
	}
	return &Counter{counter: c}, nil
}

// Inc adds one.
func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Add adds n.
func (c *Counter) Add(ctx context.Context, n int64, attrs ...attribute.KeyValue) {
	c.counter.Add(ctx, n, metric.WithAttributes(attrs...))
}

// AmountCounter accumulates monetary amounts as float64 kwanza.
type AmountCounter struct {
	counter metric.Float64Counter
}

// NewAmountCounter creates an AmountCounter.
func NewAmountCounter(meter metric.Meter, name, description string) (*AmountCounter, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	c, err := meter.Float64Counter(name, metric.WithDescription(description), metric.WithUnit("{AOA}"))
	if err != nil {
		return nil, err
	}
	return &AmountCounter{counter: c}, nil
}

// Add records a non-negative amount. Negative values are dropped.
func (c *AmountCounter) Add(ctx context.Context, amount float64, attrs ...attribute.KeyValue) {
	if amount < 0 {
		return
	}
	c.counter.Add(ctx, amount, metric.WithAttributes(attrs...))
}

// Histogram wraps a float64 histogram.
type Histogram struct {
	histogram metric.Float64Histogram
}

// NewHistogram creates a Histogram.
func NewHistogram(meter metric.Meter, name, description, unit string) (*Histogram, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	h, err := meter.Float64Histogram(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, err
	}
	return &Histogram{histogram: h}, nil
}

// Record records one observation.
func (h *Histogram) Record(ctx context.Context, v float64, attrs ...attribute.KeyValue) {
	h.histogram.Record(ctx, v, metric.WithAttributes(attrs...))
}

// Gauge holds last-observed values per attribute set and reports them
// through an observable gauge.
type Gauge struct {
	mu     sync.RWMutex
	values map[attribute.Distinct]gaugeValue
}

type gaugeValue struct {
	set   attribute.Set
	value int64
}

// NewGauge creates a Gauge.
func NewGauge(meter metric.Meter, name, description, unit string) (*Gauge, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	g := &Gauge{values: make(map[attribute.Distinct]gaugeValue)}
	_, err := meter.Int64ObservableGauge(name,
		metric.WithDescription(description),
		metric.WithUnit(unit),
		metric.WithInt64Callback(g.observe),
	)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Set stores the value for attrs.
func (g *Gauge) Set(value int64, attrs ...attribute.KeyValue) {
	set := attribute.NewSet(attrs...)
	g.mu.Lock()
	g.values[set.Equivalent()] = gaugeValue{set: set, value: value}
	g.mu.Unlock()
}

// Get returns the stored value for attrs.
func (g *Gauge) Get(attrs ...attribute.KeyValue) (int64, bool) {
	set := attribute.NewSet(attrs...)
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.values[set.Equivalent()]
	return v.value, ok
}

func (g *Gauge) observe(_ context.Context, o metric.Int64Observer) error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, v := range g.values {
		o.Observe(v.value, metric.WithAttributeSet(v.set))
	}
	return nil
}
