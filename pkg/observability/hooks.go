// Package observability carries partitioning, cache and HTTP events to
// metrics or tracing backends.
//
// Packages emit events through the registered hooks; the defaults do
// nothing. Register implementations once at startup:
//
//	observability.SetPipelineHooks(metrics)
//	observability.SetCacheHooks(metrics)
//
// [LogHooks] writes every event to a charmbracelet/log logger at debug
// level. Hooks are called from the goroutine that produced the event. Trial
// events of one run arrive from a single goroutine, but runs may overlap,
// so implementations must be safe for concurrent use.
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// PipelineHooks receives events from multi-start partitioning runs.
type PipelineHooks interface {
	OnRunStart(ctx context.Context, name string, pins, trials int)
	OnTrialComplete(ctx context.Context, trial int, cut float64, duration time.Duration)
	OnRunComplete(ctx context.Context, name string, cut float64, duration time.Duration, err error)
}

// CacheHooks receives cache events. keyType is "partition" for pipeline
// results and "artifact" for renderings.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives one event per served API request. route is the
// matched route pattern, not the raw path.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, route string, status int, duration time.Duration)
}

// NoopPipelineHooks discards pipeline events.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnRunStart(context.Context, string, int, int)                         {}
func (NoopPipelineHooks) OnTrialComplete(context.Context, int, float64, time.Duration)         {}
func (NoopPipelineHooks) OnRunComplete(context.Context, string, float64, time.Duration, error) {}

// NoopCacheHooks discards cache events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks discards HTTP events.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, int, time.Duration) {}

// registry is an immutable snapshot of the registered hooks. Setters copy
// it under mu; getters load it without locking.
type registry struct {
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
}

func noopRegistry() *registry {
	return &registry{NoopPipelineHooks{}, NoopCacheHooks{}, NoopHTTPHooks{}}
}

var (
	mu      sync.Mutex
	current atomic.Pointer[registry]
)

func init() { current.Store(noopRegistry()) }

func update(fn func(*registry)) {
	mu.Lock()
	defer mu.Unlock()
	next := *current.Load()
	fn(&next)
	current.Store(&next)
}

// SetPipelineHooks registers pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		update(func(r *registry) { r.pipeline = h })
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(r *registry) { r.cache = h })
	}
}

// SetHTTPHooks registers HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(r *registry) { r.http = h })
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks { return current.Load().pipeline }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return current.Load().cache }

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks { return current.Load().http }

// Reset restores the no-op hooks.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current.Store(noopRegistry())
}
