package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by logging the event at debug
// level.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks writing to logger, prefixed with "events".
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{Logger: logger.WithPrefix("events")}
}

// Register installs h as the pipeline, cache and HTTP hooks.
func (h *LogHooks) Register() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnRunStart(_ context.Context, name string, pins, trials int) {
	h.Logger.Debug("run start", "name", name, "pins", pins, "trials", trials)
}

func (h *LogHooks) OnTrialComplete(_ context.Context, trial int, cut float64, d time.Duration) {
	h.Logger.Debug("trial complete", "trial", trial, "cut", cut, "duration", d)
}

func (h *LogHooks) OnRunComplete(_ context.Context, name string, cut float64, d time.Duration, err error) {
	if err != nil {
		h.Logger.Debug("run failed", "name", name, "duration", d, "err", err)
		return
	}
	h.Logger.Debug("run complete", "name", name, "cut", cut, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	h.Logger.Debug("request", "method", method, "route", route, "status", status, "duration", d)
}

var (
	_ PipelineHooks = (*LogHooks)(nil)
	_ CacheHooks    = (*LogHooks)(nil)
	_ HTTPHooks     = (*LogHooks)(nil)
)
