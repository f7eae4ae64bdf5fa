package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/valpere/peredoc/internal/generator"
)

// metered wraps the backend for a single run: every call gets its own
// deadline and is counted.
type metered struct {
	inner   generator.Generator
	timeout time.Duration
	calls   atomic.Int32
}

func (m *metered) Name() string { return m.inner.Name() }

func (m *metered) Generate(ctx context.Context, req generator.Request) (string, error) {
	m.calls.Add(1)
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	return m.inner.Generate(ctx, req)
}

func (m *metered) count() int { return int(m.calls.Load()) }
