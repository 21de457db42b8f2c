package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestProgressLogger(t *testing.T) {
	tests := []struct {
		name           string
		burst          int
		messages       int
		wantLogged     int
		wantSuppressed int
	}{
		{name: "within burst", burst: 5, messages: 3, wantLogged: 3},
		{name: "over burst", burst: 2, messages: 5, wantLogged: 2, wantSuppressed: 3},
		{name: "zero burst drops everything", burst: 0, messages: 2, wantSuppressed: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))
			pl := NewProgressLogger(logger, time.Hour, tt.burst)

			for range tt.messages {
				pl.Progress(context.Background(), "install", "step")
			}

			assert.Equal(t, tt.wantLogged, strings.Count(buf.String(), "hook progress"))
			assert.Equal(t, tt.wantSuppressed, pl.Suppressed())
		})
	}
}

func TestProgressLogger_ReportsSuppressedCount(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	pl := NewProgressLogger(logger, time.Hour, 1)

	pl.Progress(context.Background(), "install", "first")
	pl.Progress(context.Background(), "install", "second")
	pl.Progress(context.Background(), "install", "third")
	assert.Equal(t, 2, pl.Suppressed())

	// Lift the limit instead of waiting an hour for a token.
	pl.limiter.SetLimit(rate.Inf)
	pl.Progress(context.Background(), "install", "fourth")

	assert.Contains(t, buf.String(), "message=fourth suppressed=2")
	assert.Zero(t, pl.Suppressed())
}
