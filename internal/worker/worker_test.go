package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillmatch/internal/domain/match"
)

func TestPool_RunsAllTasks(t *testing.T) {
	p := NewPool(3, 10)
	results := p.Run(context.Background())

	var n atomic.Int32
	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(context.Background(), func(context.Context) error {
			n.Add(1)
			return nil
		}))
	}
	p.Close()

	count := 0
	for res := range results {
		assert.NoError(t, res.Err)
		count++
	}
	assert.Equal(t, 10, count)
	assert.Equal(t, int32(10), n.Load())
}

func TestPool_SubmitHonoursContext(t *testing.T) {
	p := NewPool(1, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Submit(ctx, func(context.Context) error { return nil }), context.Canceled)
}

type chanSource struct {
	reqs chan match.Request
}

func (s chanSource) ConsumeRequests(ctx context.Context, _ int, handle func(context.Context, match.Request) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case req, ok := <-s.reqs:
			if !ok {
				return nil
			}
			_ = handle(ctx, req)
		}
	}
}

type recordingProcessor struct {
	mu   sync.Mutex
	seen []uuid.UUID
	fail uuid.UUID
}

func (p *recordingProcessor) Process(_ context.Context, req match.Request) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, req.MatchID)
	if req.MatchID == p.fail {
		return errors.New("boom")
	}
	return nil
}

func TestRunner_ProcessesEveryRequest(t *testing.T) {
	src := chanSource{reqs: make(chan match.Request, 8)}
	want := make([]uuid.UUID, 0, 8)
	for i := 0; i < 8; i++ {
		id := uuid.New()
		want = append(want, id)
		src.reqs <- match.Request{MatchID: id, UserID: uuid.New()}
	}
	close(src.reqs)

	proc := &recordingProcessor{fail: want[3]}
	r := NewRunner(src, proc, 3, time.Second, nil)

	require.NoError(t, r.Run(context.Background()))
	assert.ElementsMatch(t, want, proc.seen)
}

type failingSource struct{}

func (failingSource) ConsumeRequests(context.Context, int, func(context.Context, match.Request) error) error {
	return errors.New("request channel closed")
}

func TestRunner_ReturnsConsumerFailure(t *testing.T) {
	r := NewRunner(failingSource{}, &recordingProcessor{}, 2, 0, nil)
	assert.EqualError(t, r.Run(context.Background()), "request channel closed")
}
