package runner

import (
	"context"
)

// RunCampaign executes the full campaign: golden run, then
// cfg.NumberOfRuns injected iterations, per spec.md §4.6's opening
// sentence. emit is called once for the golden record and once per
// iteration, in order — the streaming sink spec.md §6 calls "the
// outgoing record stream (consumed by an external writer)"; report
// writing itself lives outside this package (internal/report).
func (c *Controller) RunCampaign(ctx context.Context, emit func(rec RunRecord, isGolden bool)) error {
	golden, err := c.Golden(ctx)
	if err != nil {
		return err
	}
	emit(golden, true)

	for i := 0; i < c.cfg.NumberOfRuns; i++ {
		if c.logger != nil {
			c.logger.Info("runner: starting iteration", "run", i+1, "of", c.cfg.NumberOfRuns)
		}
		rec, err := c.RunIteration(ctx)
		if err != nil {
			return err
		}
		emit(rec, false)
	}
	return nil
}

// Close tears down the underlying Debugger Adapter (spec.md §4.3's
// "created once per campaign and torn down at close").
func (c *Controller) Close(ctx context.Context) error {
	return c.adapter.Close(ctx)
}
