package llm

import (
	"context"
	"io"
	"sync"
)

type channelStream struct {
	ctx       context.Context
	cancel    context.CancelFunc
	fragments <-chan Fragment
	done      chan struct{}
	closeOnce sync.Once
}

// newFragmentStream runs produce in a goroutine and exposes what it emits as a Stream.
// produce must return once ctx is done; emit reports false when the consumer went away.
func newFragmentStream(ctx context.Context, produce func(ctx context.Context, emit func(Fragment) bool)) Stream {
	streamCtx, cancel := context.WithCancel(ctx)
	ch := make(chan Fragment, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer close(ch)
		produce(streamCtx, func(f Fragment) bool {
			select {
			case <-streamCtx.Done():
				return false
			case ch <- f:
				return true
			}
		})
	}()
	return &channelStream{ctx: streamCtx, cancel: cancel, fragments: ch, done: done}
}

// singleFragmentStream yields f and ends.
func singleFragmentStream(ctx context.Context, f Fragment) Stream {
	return newFragmentStream(ctx, func(_ context.Context, emit func(Fragment) bool) {
		emit(f)
	})
}

func (s *channelStream) Recv() (Fragment, error) {
	// Non-blocking drain: consume any buffered fragment before checking ctx.Done().
	select {
	case f, ok := <-s.fragments:
		if !ok {
			return Fragment{}, io.EOF
		}
		return f, nil
	default:
	}

	select {
	case <-s.ctx.Done():
		return Fragment{}, s.ctx.Err()
	case f, ok := <-s.fragments:
		if !ok {
			return Fragment{}, io.EOF
		}
		return f, nil
	}
}

// Close cancels the producer and waits for it to exit.
func (s *channelStream) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
	})
	return nil
}
