package runner

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// WaveProgress describes one completed wave of flow instances.
type WaveProgress struct {
	Wave      int
	Waves     int
	Launched  int
	Completed int
	Total     int
}

// ProgressSink receives a notification after each wave drains.
type ProgressSink interface {
	Wave(p WaveProgress)
}

// scheduler launches flow instances in strict waves of at most
// concurrency at a time and waits for every instance in a wave to finish
// before starting the next. Cancellation stops between waves; instances
// already in flight run to their own cancellation points.
type scheduler struct {
	total       int
	concurrency int
	limiter     *rate.Limiter
	progress    ProgressSink
}

func (s *scheduler) waves() int {
	return (s.total + s.concurrency - 1) / s.concurrency
}

func (s *scheduler) run(ctx context.Context, launch func(ctx context.Context, instance int)) {
	waves := s.waves()
	completed := 0

	for wave := 0; wave < waves; wave++ {
		if ctx.Err() != nil {
			return
		}

		size := s.concurrency
		if remaining := s.total - completed; remaining < size {
			size = remaining
		}

		var wg sync.WaitGroup
		launched := 0
		for i := 0; i < size; i++ {
			if s.limiter != nil {
				if err := s.limiter.Wait(ctx); err != nil {
					break
				}
			}
			instance := completed + i
			wg.Add(1)
			launched++
			go func() {
				defer wg.Done()
				launch(ctx, instance)
			}()
		}
		wg.Wait()

		completed += launched
		if s.progress != nil {
			s.progress.Wave(WaveProgress{
				Wave:      wave + 1,
				Waves:     waves,
				Launched:  size,
				Completed: completed,
				Total:     s.total,
			})
		}
		if launched < size {
			return
		}
	}
}
