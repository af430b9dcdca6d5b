package progress

import (
	"context"
	"log"
	"strings"

	"treasurehunt/backend/metrics"
	"treasurehunt/backend/models"
)

// Unavailable is reported as the serving backend when every backend failed.
const Unavailable = "unavailable"

// FallbackBackend tries its backends in order and returns the first success.
// Every failure is logged and counted; only when all backends fail is the
// last error returned.
//
// Clear and MarkCompleted are applied to every backend, so a later fallback
// read never resurrects stale state, and fail only when the final backend
// (the system of record) fails.
type FallbackBackend struct {
	backends []Backend
	logger   *log.Logger
	metrics  *metrics.Metrics
}

func NewFallbackBackend(logger *log.Logger, m *metrics.Metrics, backends ...Backend) *FallbackBackend {
	return &FallbackBackend{backends: backends, logger: logger, metrics: m}
}

func (f *FallbackBackend) Name() string {
	names := make([]string, len(f.backends))
	for i, b := range f.backends {
		names[i] = b.Name()
	}
	return "fallback(" + strings.Join(names, ",") + ")"
}

func (f *FallbackBackend) fail(b Backend, op, username string, err error) {
	f.logger.Printf("progress %s via %s failed for %s: %v", op, b.Name(), username, err)
	f.metrics.StorageFailure(b.Name(), op)
}

// SaveVia saves with the first backend that accepts the write and returns
// its name.
func (f *FallbackBackend) SaveVia(ctx context.Context, username string, p models.Progress) (string, error) {
	err := ErrNoBackend
	for _, b := range f.backends {
		if err = b.Save(ctx, username, p); err == nil {
			return b.Name(), nil
		}
		f.fail(b, "save", username, err)
	}
	return Unavailable, err
}

// LoadVia returns the first saved record found. A backend that answers with
// no record does not stop the search, but counts as serving when nobody has
// one.
func (f *FallbackBackend) LoadVia(ctx context.Context, username string) (*models.Progress, string, error) {
	err := ErrNoBackend
	served := ""
	for _, b := range f.backends {
		var p *models.Progress
		p, err = b.Load(ctx, username)
		if err != nil {
			f.fail(b, "load", username, err)
			continue
		}
		if p != nil {
			return p, b.Name(), nil
		}
		if served == "" {
			served = b.Name()
		}
	}
	if served != "" {
		return nil, served, nil
	}
	return nil, Unavailable, err
}

// ClearVia clears every backend and reports the first one that succeeded.
func (f *FallbackBackend) ClearVia(ctx context.Context, username string) (string, error) {
	return f.each(ctx, username, "clear", Backend.Clear)
}

// MarkCompletedVia flags every backend and reports the first one that
// succeeded.
func (f *FallbackBackend) MarkCompletedVia(ctx context.Context, username string) (string, error) {
	return f.each(ctx, username, "mark_completed", Backend.MarkCompleted)
}

func (f *FallbackBackend) each(ctx context.Context, username, op string, fn func(Backend, context.Context, string) error) (string, error) {
	if len(f.backends) == 0 {
		return Unavailable, ErrNoBackend
	}
	served := ""
	var lastErr error
	for i, b := range f.backends {
		err := fn(b, ctx, username)
		if err != nil {
			f.fail(b, op, username, err)
			if i == len(f.backends)-1 {
				lastErr = err
			}
			continue
		}
		if served == "" {
			served = b.Name()
		}
	}
	if lastErr != nil {
		if served == "" {
			return Unavailable, lastErr
		}
		return served, lastErr
	}
	return served, nil
}

func (f *FallbackBackend) Save(ctx context.Context, username string, p models.Progress) error {
	_, err := f.SaveVia(ctx, username, p)
	return err
}

func (f *FallbackBackend) Load(ctx context.Context, username string) (*models.Progress, error) {
	p, _, err := f.LoadVia(ctx, username)
	return p, err
}

func (f *FallbackBackend) Clear(ctx context.Context, username string) error {
	_, err := f.ClearVia(ctx, username)
	return err
}

func (f *FallbackBackend) MarkCompleted(ctx context.Context, username string) error {
	_, err := f.MarkCompletedVia(ctx, username)
	return err
}
