package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/YuminosukeSato/sfasweep/grid"
	"github.com/YuminosukeSato/sfasweep/pkg/errors"
	"github.com/YuminosukeSato/sfasweep/pkg/log"
)

// ResultSink persists fit results. Write is only ever called from one
// goroutine at a time.
type ResultSink interface {
	Write(ctx context.Context, res *FitResult) error
}

// SinkFunc adapts a function to ResultSink.
type SinkFunc func(ctx context.Context, res *FitResult) error

// Write calls f(ctx, res).
func (f SinkFunc) Write(ctx context.Context, res *FitResult) error { return f(ctx, res) }

// Sweeper dispatches fits to a bounded goroutine pool.
type Sweeper struct {
	worker  *Worker
	threads int
	logger  log.Logger
}

// NewSweeper creates a sweeper running at most threads fits at once.
// Values below one run the sweep sequentially.
func NewSweeper(w *Worker, threads int) *Sweeper {
	if threads < 1 {
		threads = 1
	}
	return &Sweeper{
		worker:  w,
		threads: threads,
		logger:  log.GetLoggerWithName("sweep").With(log.ThreadsKey, threads),
	}
}

// Run fits every combination and writes each result to sink as soon as it
// completes. Fits are never cancelled. If the sink fails, later results are
// discarded, the remaining fits still drain and the first sink error is
// returned.
func (s *Sweeper) Run(ctx context.Context, params []grid.Params, sink ResultSink) (Summary, error) {
	start := time.Now()
	total := len(params)
	summary := Summary{Total: total}
	s.logger.Info("Starting sweep", log.OperationKey, log.OperationSweep, log.TotalKey, total)

	results := make(chan *FitResult)
	go func() {
		p := pool.New().WithMaxGoroutines(s.threads)
		for _, param := range params {
			p.Go(func() {
				results <- s.worker.Fit(param)
			})
		}
		p.Wait()
		close(results)
	}()

	var sinkErr error
	completed := 0
	for res := range results {
		completed++
		if res.Succeeded() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		if sinkErr != nil {
			continue
		}
		s.logger.Info(fmt.Sprintf("(%d/%d) Writing results of %s", completed, total, res.Params),
			log.CompletedKey, completed, log.TotalKey, total)
		if err := sink.Write(ctx, res); err != nil {
			sinkErr = errors.Wrapf(err, "sweep: write %s", res.Params.GroupName())
			s.logger.Error("Result store failed, discarding remaining results", sinkErr)
			continue
		}
		summary.Written++
	}

	summary.Duration = time.Since(start)
	s.logger.Info("Sweep finished",
		log.TotalKey, total,
		log.SucceededKey, summary.Succeeded,
		log.FailedKey, summary.Failed,
		log.DurationMsKey, summary.Duration.Milliseconds())
	return summary, sinkErr
}
