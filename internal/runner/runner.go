// Package runner implements the Run Controller (C6): the golden run,
// the per-iteration protocol of spec.md §4.6, the one-shot per-iteration
// timeout, and the golden/run key-set invariant.
package runner

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sbancuz/fit/internal/campaign"
	"github.com/sbancuz/fit/internal/events"
	"github.com/sbancuz/fit/internal/fiterr"
	"github.com/sbancuz/fit/internal/gdbmi"
	"github.com/sbancuz/fit/internal/logging"
	"github.com/sbancuz/fit/internal/target"
)

// Config is the subset of the campaign config the Run Controller needs,
// already resolved to concrete durations/counts (spec.md §6).
type Config struct {
	GoldenResultCondition string
	ResultConditions      []string
	NumberOfRuns          int
	Timeout               time.Duration
	InjectionDelayMin     time.Duration
	InjectionDelayMax     time.Duration
}

// RunRecord is one golden or injected run's outcome (spec.md §3's
// "RunRecord = { result, observed }").
type RunRecord struct {
	Result   string
	Observed map[string]any // TargetLabel -> uint64 | []uint64
}

// keySet returns the set of observed keys, used by the key-set
// invariant check.
func (r RunRecord) keySet() map[string]bool {
	s := make(map[string]bool, len(r.Observed))
	for k := range r.Observed {
		s[k] = true
	}
	return s
}

func sameKeySet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// Controller drives one campaign's golden run plus N injected iterations.
type Controller struct {
	adapter *gdbmi.Adapter
	surface *target.Surface
	sampler *campaign.Sampler
	rng     *rand.Rand
	cfg     Config
	logger  *logging.Logger

	// targets is the declared observable set, in campaign-CSV-declaration
	// order, for stable snapshot/report column order (spec.md §6).
	targets []labeledAddress

	golden     *RunRecord
	goldenKeys map[string]bool
}

type labeledAddress struct {
	label string
	addr  target.Address
}

// New builds a Controller. targetLabels is every distinct "where" value
// from the campaign CSV, in first-seen order (campaign.Data.Targets()).
func New(adapter *gdbmi.Adapter, surface *target.Surface, sampler *campaign.Sampler, rng *rand.Rand, cfg Config, logger *logging.Logger, targetLabels []string) (*Controller, error) {
	c := &Controller{adapter: adapter, surface: surface, sampler: sampler, rng: rng, cfg: cfg, logger: logger}
	for _, label := range targetLabels {
		addr, err := target.Parse(label, adapter.IsRegister)
		if err != nil {
			return nil, fiterr.Config("runner.New", "target %q: %v", label, err)
		}
		c.targets = append(c.targets, labeledAddress{label: label, addr: addr})
	}
	return c, nil
}

// registerConditions registers golden_result_condition plus every
// additional result_condition as events, per spec.md §4.6 step 2.
func (c *Controller) registerConditions(ctx context.Context) error {
	if err := c.adapter.SetEvent(ctx, c.cfg.GoldenResultCondition, c.cfg.GoldenResultCondition); err != nil {
		return err
	}
	for _, cond := range c.cfg.ResultConditions {
		if err := c.adapter.SetEvent(ctx, cond, cond); err != nil {
			return err
		}
	}
	return nil
}

// snapshot reads every declared target's current value, in declaration
// order, per spec.md §4.6 step 9.
func (c *Controller) snapshot(ctx context.Context) (map[string]any, error) {
	observed := make(map[string]any, len(c.targets))
	for _, t := range c.targets {
		switch t.addr.Kind {
		case target.KindRange:
			words, err := c.surface.ReadRange(ctx, t.addr, 0)
			if err != nil {
				return nil, fiterr.ProtocolWrap("snapshot", err, "reading range target %q", t.label)
			}
			observed[t.label] = []uint64(words)
		default:
			word, err := c.surface.ReadWord(ctx, t.addr)
			if err != nil {
				return nil, fiterr.ProtocolWrap("snapshot", err, "reading target %q", t.label)
			}
			observed[t.label] = word
		}
	}
	return observed, nil
}

// Golden performs the golden run: reset, register golden_result_condition,
// run(blocking), snapshot (spec.md §4.6's opening sentence).
func (c *Controller) Golden(ctx context.Context) (RunRecord, error) {
	if err := c.adapter.Reset(ctx); err != nil {
		return RunRecord{}, err
	}
	if err := c.adapter.SetEvent(ctx, c.cfg.GoldenResultCondition, c.cfg.GoldenResultCondition); err != nil {
		return RunRecord{}, err
	}
	result, err := c.adapter.Run(ctx, true)
	if err != nil {
		return RunRecord{}, err
	}
	observed, err := c.snapshot(ctx)
	if err != nil {
		return RunRecord{}, err
	}
	rec := RunRecord{Result: result, Observed: observed}
	c.golden = &rec
	c.goldenKeys = rec.keySet()
	return rec, nil
}

// checkKeySet enforces spec.md §4.6's "Key-set invariant": once golden is
// set, every subsequent record must share its exact observed key set.
func (c *Controller) checkKeySet(rec RunRecord) error {
	if c.goldenKeys == nil {
		return nil
	}
	if !sameKeySet(c.goldenKeys, rec.keySet()) {
		return fiterr.KeySet("runner", "run record keys %v differ from golden keys %v", keys(rec.keySet()), keys(c.goldenKeys))
	}
	return nil
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// RunIteration executes one injected iteration per spec.md §4.6's
// per-iteration protocol, steps 1-10.
func (c *Controller) RunIteration(ctx context.Context) (RunRecord, error) {
	if err := c.adapter.Reset(ctx); err != nil { // step 1
		return RunRecord{}, err
	}
	if err := c.registerConditions(ctx); err != nil { // step 2
		return RunRecord{}, err
	}

	result, err := c.adapter.Run(ctx, false) // step 3
	if err != nil {
		return RunRecord{}, err
	}
	if result != events.ResultUnknown {
		return c.recordSkippingInjection(ctx, result)
	}

	delay := c.sampleInjectionDelay() // step 4
	select {
	case <-ctx.Done():
		return RunRecord{}, ctx.Err()
	case <-time.After(delay):
	}

	result, err = c.adapter.Interrupt(ctx) // step 5
	if err != nil {
		return RunRecord{}, err
	}
	if result != events.ResultUnknown {
		return c.recordSkippingInjection(ctx, result)
	}

	if err := c.inject(ctx); err != nil { // step 6
		return RunRecord{}, err
	}

	result, err = c.runBlockingWithTimeout(ctx) // step 7-8
	if err != nil {
		return RunRecord{}, err
	}

	observed, err := c.snapshot(ctx) // step 9
	if err != nil {
		return RunRecord{}, err
	}
	rec := RunRecord{Result: result, Observed: observed} // step 10
	if err := c.checkKeySet(rec); err != nil {
		return RunRecord{}, err
	}
	return rec, nil
}

// recordSkippingInjection handles the two pre-injection-stop cases
// (spec.md §4.6 steps 3 and 5, and the resolved Open Question in
// spec.md §9): the run is recorded as-is and the iteration ends without
// ever calling inject.
func (c *Controller) recordSkippingInjection(ctx context.Context, result string) (RunRecord, error) {
	observed, err := c.snapshot(ctx)
	if err != nil {
		return RunRecord{}, err
	}
	rec := RunRecord{Result: result, Observed: observed}
	if err := c.checkKeySet(rec); err != nil {
		return RunRecord{}, err
	}
	return rec, nil
}

func (c *Controller) sampleInjectionDelay() time.Duration {
	lo, hi := c.cfg.InjectionDelayMin, c.cfg.InjectionDelayMax
	if hi <= lo {
		return lo
	}
	span := hi - lo
	return lo + time.Duration(c.rng.Int63n(int64(span)+1))
}

// inject samples one injection via the Campaign Engine (C5) and applies
// it via the Target Surface (C4), per spec.md §4.6 step 6.
func (c *Controller) inject(ctx context.Context) error {
	words := c.adapter.WordBytes()
	inj, err := c.sampler.Sample(words)
	if err != nil {
		return err
	}
	return c.applyInjection(ctx, inj)
}

func (c *Controller) applyInjection(ctx context.Context, inj campaign.Injection) error {
	if inj.Target.Kind == target.KindRange {
		return c.applyRangeOp(ctx, inj)
	}
	return c.applyScalarOp(ctx, inj)
}

// applyScalarOp handles KindVariable, KindAddress and KindRegister
// targets alike: a single read-modify-write through the Target Surface.
// A register target sampled with more than one word is routed through
// WriteRegisterList instead, so its "not an array" rejection fires
// rather than silently truncating to the first word.
func (c *Controller) applyScalarOp(ctx context.Context, inj campaign.Injection) error {
	if inj.Target.Kind == target.KindRegister && len(inj.Words) > 1 {
		return c.surface.WriteRegisterList(ctx, inj.Target, target.WordList(inj.Words))
	}
	current, err := c.surface.ReadWord(ctx, inj.Target)
	if err != nil {
		return err
	}
	value := applyOperation(inj.Operation, current, inj.Words)
	return c.surface.WriteWord(ctx, inj.Target, value)
}

func (c *Controller) applyRangeOp(ctx context.Context, inj campaign.Injection) error {
	if inj.Operation == campaign.OpZero {
		return c.surface.WriteRange(ctx, inj.Target, 0, target.WordList{0})
	}
	if inj.Operation == campaign.OpValue {
		return c.surface.WriteRange(ctx, inj.Target, 0, target.WordList(inj.Words))
	}
	current, err := c.surface.ReadRange(ctx, inj.Target, 0)
	if err != nil {
		return err
	}
	combined, err := combineRange(inj.Operation, current, target.WordList(inj.Words))
	if err != nil {
		return err
	}
	return c.surface.WriteRange(ctx, inj.Target, 0, combined)
}

func combineRange(op campaign.Operation, current, words target.WordList) (target.WordList, error) {
	// words need not match current's length (Stencil.MaxChunks need not
	// equal the range length): a single word is broadcast across current,
	// otherwise both lists are truncated to the shorter one, matching
	// WriteRange's own broadcast/truncate rule.
	if len(words) == 1 {
		switch op {
		case campaign.OpXor:
			return current.XorScalar(words[0]), nil
		case campaign.OpAnd:
			return current.AndScalar(words[0]), nil
		case campaign.OpOr:
			return current.OrScalar(words[0]), nil
		}
	}
	n := len(current)
	if len(words) < n {
		n = len(words)
	}
	switch op {
	case campaign.OpXor:
		return current[:n].XorVector(words[:n])
	case campaign.OpAnd:
		return current[:n].AndVector(words[:n])
	case campaign.OpOr:
		return current[:n].OrVector(words[:n])
	default:
		return nil, fmt.Errorf("runner: unsupported range operation %q", op)
	}
}

func applyOperation(op campaign.Operation, current uint64, words []uint64) uint64 {
	var w uint64
	if len(words) > 0 {
		w = words[0]
	}
	switch op {
	case campaign.OpXor:
		return current ^ w
	case campaign.OpAnd:
		return current & w
	case campaign.OpOr:
		return current | w
	case campaign.OpZero:
		return 0
	case campaign.OpValue:
		return w
	default:
		return current
	}
}

// runBlockingWithTimeout resumes the inferior and waits, bounded by
// cfg.Timeout, per spec.md §4.6 steps 7-8. A context deadline plays the
// "one-shot cancellation token" the controller owns per blocking run
// (spec.md §4.6's "Cancellation" paragraph); its internal timer is the
// "one helper task" spec.md §5 describes, bounding the poll without ever
// issuing an MI command itself. On timeout the adapter is forcibly
// interrupted back to Interrupted before the iteration returns.
func (c *Controller) runBlockingWithTimeout(ctx context.Context) (string, error) {
	iterCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	result, err := c.adapter.Run(iterCtx, true)
	if err != nil {
		return "", err
	}
	if result == events.ResultTimeout {
		if ferr := c.adapter.ForceInterrupt(ctx); ferr != nil {
			return "", fiterr.ProtocolWrap("run_iteration", ferr, "forcing interrupt after timeout")
		}
	}
	return result, nil
}
