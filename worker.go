package duotoneanim

import (
	"context"
	"fmt"
)

// Run executes one request synchronously. A StartFresh run emits
// DuotoneReady, FrameBatchCount-1 batches and Done. A Continue run skips
// DuotoneReady. The context is checked between batches, and an error from
// emit stops the run.
func Run(ctx context.Context, msg Inbound, opts Options, emit func(Outbound) error) error {
	var e *Engine
	switch m := msg.(type) {
	case StartFresh:
		var err error
		if e, err = NewEngine(m.Width, m.Height, m.RGBA, opts); err != nil {
			return err
		}
		ready, err := e.Prepare()
		if err != nil {
			return err
		}
		if err := emit(ready); err != nil {
			return err
		}
	case Continue:
		var err error
		if e, err = Restore(m, opts); err != nil {
			return err
		}
	default:
		return invalidf("unsupported message %T", msg)
	}

	for i := 1; i < e.batchCount; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run %s stopped before batch %d: %w", e.runID, i, err)
		}
		if err := emit(e.NextBatch()); err != nil {
			return err
		}
	}
	return emit(Done{RunID: e.runID, State: e.Snapshot()})
}

// Start runs the request on its own goroutine. The outbound channel is
// closed when the run ends, after which the error channel yields the
// terminal error, or nil.
func Start(ctx context.Context, msg Inbound, opts Options) (<-chan Outbound, <-chan error) {
	out := make(chan Outbound)
	errc := make(chan error, 1)
	go func() {
		err := Run(ctx, msg, opts, func(o Outbound) error {
			select {
			case out <- o:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		close(out)
		errc <- err
		close(errc)
	}()
	return out, errc
}
