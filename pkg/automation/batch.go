package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/socialkit/commentd/pkg/logging"
)

// PacingPolicy is the rate discipline for batch execution. It exists
// as its own value so pacing is testable apart from the loop that
// applies it.
type PacingPolicy struct {
	// MaxBatchSize is a hard ceiling; larger batches are rejected
	// outright, never truncated.
	MaxBatchSize int

	// InterItemDelay is the fixed wait between consecutive items. The
	// target platforms rate-limit per account and per IP; the delay
	// keeps batches under those limits.
	InterItemDelay time.Duration
}

// DefaultPacing returns the shipped policy: at most 10 items, 2
// seconds apart.
func DefaultPacing() PacingPolicy {
	return PacingPolicy{
		MaxBatchSize:   10,
		InterItemDelay: 2 * time.Second,
	}
}

// Admit rejects a batch that exceeds the ceiling.
func (p PacingPolicy) Admit(size int) error {
	if size > p.MaxBatchSize {
		return fmt.Errorf("%w: %d items, maximum %d", ErrBatchTooLarge, size, p.MaxBatchSize)
	}
	return nil
}

// BatchReport is the outcome of a batch run. Results mirror the input
// order; Successful+Failed always equals Total.
type BatchReport struct {
	Results    []PostResult `json:"results"`
	Total      int          `json:"total"`
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
}

// Coordinator executes batches strictly sequentially, one in-flight
// action at a time, isolating each item's failure and enforcing the
// pacing policy between items. Concurrency is deliberately absent
// here; parallel posting is how accounts get rate-limited or banned.
type Coordinator struct {
	poster CommentPoster
	pacing PacingPolicy
	log    *logging.Logger
}

// NewCoordinator creates a batch coordinator. log may be nil.
func NewCoordinator(poster CommentPoster, pacing PacingPolicy, log *logging.Logger) *Coordinator {
	if pacing.MaxBatchSize <= 0 {
		pacing = DefaultPacing()
	}
	return &Coordinator{
		poster: poster,
		pacing: pacing,
		log:    log,
	}
}

// Run executes requests in input order. An oversized batch is rejected
// before any item runs. A single item's failure is recorded as a
// failed result and never aborts the batch. Cancelling ctx stops
// scheduling further items; the in-flight item finishes or fails on
// its own, and the partial report is returned with the context error.
func (c *Coordinator) Run(ctx context.Context, requests []PostRequest) (BatchReport, error) {
	if err := c.pacing.Admit(len(requests)); err != nil {
		return BatchReport{}, err
	}

	report := BatchReport{Results: make([]PostResult, 0, len(requests))}

	for i, req := range requests {
		if err := ctx.Err(); err != nil {
			c.logf("batch cancelled after %d of %d items", i, len(requests))
			return report, err
		}

		result, err := c.poster.Post(ctx, req)
		if err != nil {
			result = PostResult{
				Request:  req,
				Success:  false,
				Error:    err.Error(),
				PostedAt: time.Now(),
			}
			c.logf("batch item %d failed: %v", i, err)
		}
		report.Results = append(report.Results, result)
		report.Total++
		if result.Success {
			report.Successful++
		} else {
			report.Failed++
		}

		if i < len(requests)-1 {
			if err := c.waitDelay(ctx); err != nil {
				return report, err
			}
		}
	}

	return report, nil
}

// waitDelay sleeps the inter-item delay, cancellable through ctx.
func (c *Coordinator) waitDelay(ctx context.Context) error {
	if c.pacing.InterItemDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.pacing.InterItemDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Coordinator) logf(format string, v ...interface{}) {
	if c.log != nil {
		c.log.Infof(format, v...)
	}
}
