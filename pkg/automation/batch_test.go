package automation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePoster records dispatch order and timing; URLs containing "fail"
// produce an error.
type fakePoster struct {
	dispatched []time.Time
	urls       []string
	blockUntil chan struct{}
}

func (p *fakePoster) Post(ctx context.Context, req PostRequest) (PostResult, error) {
	p.dispatched = append(p.dispatched, time.Now())
	p.urls = append(p.urls, req.VideoURL)
	if p.blockUntil != nil {
		<-p.blockUntil
	}
	if len(req.VideoURL) >= 4 && req.VideoURL[:4] == "fail" {
		return PostResult{}, errors.New("induced failure")
	}
	return PostResult{Request: req, Success: true, Simulated: true, PostedAt: time.Now()}, nil
}

func makeRequests(n int) []PostRequest {
	requests := make([]PostRequest, n)
	for i := range requests {
		requests[i] = PostRequest{AccountID: int64(i + 1), VideoURL: fmt.Sprintf("url-%d", i), Comment: "hi"}
	}
	return requests
}

func TestRunRejectsOversizedBatch(t *testing.T) {
	poster := &fakePoster{}
	coordinator := NewCoordinator(poster, DefaultPacing(), nil)

	report, err := coordinator.Run(context.Background(), makeRequests(11))
	assert.ErrorIs(t, err, ErrBatchTooLarge)
	assert.Empty(t, report.Results, "an oversized batch must execute zero items")
	assert.Empty(t, poster.dispatched)
}

func TestRunPreservesOrderAndPairsResults(t *testing.T) {
	poster := &fakePoster{}
	pacing := PacingPolicy{MaxBatchSize: 10, InterItemDelay: time.Millisecond}
	coordinator := NewCoordinator(poster, pacing, nil)

	requests := makeRequests(5)
	report, err := coordinator.Run(context.Background(), requests)
	require.NoError(t, err)

	require.Len(t, report.Results, len(requests))
	for i, result := range report.Results {
		assert.Equal(t, requests[i], result.Request, "result %d must echo request %d", i, i)
	}
	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 5, report.Successful)
	assert.Equal(t, 0, report.Failed)
}

func TestRunIsolatesItemFailure(t *testing.T) {
	poster := &fakePoster{}
	pacing := PacingPolicy{MaxBatchSize: 10, InterItemDelay: time.Millisecond}
	coordinator := NewCoordinator(poster, pacing, nil)

	requests := makeRequests(4)
	requests[1].VideoURL = "fail-here"

	report, err := coordinator.Run(context.Background(), requests)
	require.NoError(t, err, "one item's failure must not abort the batch")

	require.Len(t, report.Results, 4)
	assert.True(t, report.Results[0].Success)
	assert.False(t, report.Results[1].Success)
	assert.Equal(t, "induced failure", report.Results[1].Error)
	assert.True(t, report.Results[2].Success)
	assert.True(t, report.Results[3].Success)

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 3, report.Successful)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, report.Total, report.Successful+report.Failed)
}

func TestRunEnforcesInterItemDelay(t *testing.T) {
	poster := &fakePoster{}
	delay := 50 * time.Millisecond
	pacing := PacingPolicy{MaxBatchSize: 10, InterItemDelay: delay}
	coordinator := NewCoordinator(poster, pacing, nil)

	n := 3
	start := time.Now()
	report, err := coordinator.Run(context.Background(), makeRequests(n))
	elapsed := time.Since(start)
	require.NoError(t, err)
	require.Len(t, report.Results, n)

	assert.GreaterOrEqual(t, elapsed, time.Duration(n-1)*delay)

	require.Len(t, poster.dispatched, n)
	for i := 1; i < n; i++ {
		gap := poster.dispatched[i].Sub(poster.dispatched[i-1])
		assert.GreaterOrEqual(t, gap, delay, "gap before item %d", i)
	}
}

func TestRunNoDelayAfterLastItem(t *testing.T) {
	poster := &fakePoster{}
	pacing := PacingPolicy{MaxBatchSize: 10, InterItemDelay: 200 * time.Millisecond}
	coordinator := NewCoordinator(poster, pacing, nil)

	start := time.Now()
	_, err := coordinator.Run(context.Background(), makeRequests(1))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRunCancelStopsScheduling(t *testing.T) {
	poster := &fakePoster{}
	pacing := PacingPolicy{MaxBatchSize: 10, InterItemDelay: 10 * time.Millisecond}
	coordinator := NewCoordinator(poster, pacing, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := coordinator.Run(ctx, makeRequests(3))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Results)
	assert.Empty(t, poster.dispatched, "no item may start after cancellation")
}

func TestRunCancelDuringDelayReturnsPartialReport(t *testing.T) {
	poster := &fakePoster{}
	pacing := PacingPolicy{MaxBatchSize: 10, InterItemDelay: time.Second}
	coordinator := NewCoordinator(poster, pacing, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond) // into the first delay
		cancel()
	}()

	report, err := coordinator.Run(ctx, makeRequests(3))
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, report.Results, 1, "first item completed before cancel")
	assert.True(t, report.Results[0].Success)
	assert.Len(t, poster.dispatched, 1)
}

func TestDefaultPacing(t *testing.T) {
	pacing := DefaultPacing()
	assert.Equal(t, 10, pacing.MaxBatchSize)
	assert.Equal(t, 2*time.Second, pacing.InterItemDelay)
}

func TestAdmit(t *testing.T) {
	pacing := DefaultPacing()
	assert.NoError(t, pacing.Admit(0))
	assert.NoError(t, pacing.Admit(10))
	assert.ErrorIs(t, pacing.Admit(11), ErrBatchTooLarge)
}
