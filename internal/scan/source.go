// Package scan defines the acquisition boundary: anything that can produce
// an analysis result on demand, plus the mock instrument used in place of the
// real microscope and inference pipeline.
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/vburojevic/mscope/internal/domain"
)

// Source produces a new analysis result per call.
type Source interface {
	Produce(ctx context.Context) (domain.AnalysisResult, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (domain.AnalysisResult, error)

// Produce calls f.
func (f SourceFunc) Produce(ctx context.Context) (domain.AnalysisResult, error) { return f(ctx) }

// Normalize folds an arbitrary source error into the taxonomy: invalid
// results stay ErrInvalidResult, everything else becomes ErrAcquisition.
func Normalize(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidResult) || errors.Is(err, domain.ErrAcquisition) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrAcquisition, err)
}

// WithTimeout bounds every acquisition by d. An expired deadline surfaces as
// ErrAcquisition. A non-positive d returns src unchanged.
func WithTimeout(src Source, d time.Duration) Source {
	if d <= 0 {
		return src
	}
	return SourceFunc(func(ctx context.Context) (domain.AnalysisResult, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		type outcome struct {
			result domain.AnalysisResult
			err    error
		}
		done := make(chan outcome, 1)
		go func() {
			r, err := src.Produce(ctx)
			done <- outcome{r, err}
		}()

		select {
		case o := <-done:
			return o.result, Normalize(o.err)
		case <-ctx.Done():
			return domain.AnalysisResult{}, fmt.Errorf("%w: timed out after %s: %w", domain.ErrAcquisition, d, ctx.Err())
		}
	})
}

// WithLatency delays every acquisition by d on clk, simulating the time a
// real instrument needs to capture and classify a frame.
func WithLatency(src Source, d time.Duration, clk clock.Clock) Source {
	if d <= 0 {
		return src
	}
	if clk == nil {
		clk = clock.New()
	}
	return SourceFunc(func(ctx context.Context) (domain.AnalysisResult, error) {
		timer := clk.Timer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return domain.AnalysisResult{}, fmt.Errorf("%w: %w", domain.ErrAcquisition, ctx.Err())
		}
		return src.Produce(ctx)
	})
}

// Unavailable is a Source that always fails, standing in for an
// instrument that is disconnected.
func Unavailable(reason string) Source {
	return SourceFunc(func(context.Context) (domain.AnalysisResult, error) {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %s", domain.ErrAcquisition, reason)
	})
}
