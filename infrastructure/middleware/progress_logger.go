package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-grader/internal/ports"
)

var _ ports.ProgressObserver = (*ProgressLogger)(nil)

// ProgressLogger logs streaming-hook notifications through a token bucket
// so that a chatty hook cannot flood the log. Notifications over the limit
// are counted and reported with the next one that gets through.
type ProgressLogger struct {
	logger     *slog.Logger
	limiter    *rate.Limiter
	mu         sync.Mutex
	suppressed int
}

// NewProgressLogger allows one notification per interval with bursts of
// up to burst. A nil logger selects slog.Default().
func NewProgressLogger(logger *slog.Logger, interval time.Duration, burst int) *ProgressLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressLogger{
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(interval), burst),
	}
}

// Progress implements ports.ProgressObserver.
func (p *ProgressLogger) Progress(ctx context.Context, hook string, message string) {
	p.mu.Lock()
	if !p.limiter.Allow() {
		p.suppressed++
		p.mu.Unlock()
		return
	}
	suppressed := p.suppressed
	p.suppressed = 0
	p.mu.Unlock()

	attrs := []any{"hook", hook, "message", message}
	if suppressed > 0 {
		attrs = append(attrs, "suppressed", suppressed)
	}
	p.logger.InfoContext(ctx, "hook progress", attrs...)
}

// Suppressed returns how many notifications were dropped since the last
// one was logged.
func (p *ProgressLogger) Suppressed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.suppressed
}
