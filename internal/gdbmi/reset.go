package gdbmi

import (
	"context"
	"time"
)

// BoardFamily selects the embedded-target reset sequence, per spec.md
// §4.3's "Reset" paragraph and original_source/fit/interfaces/gdb/boards.py.
type BoardFamily int

const (
	BoardUnknown BoardFamily = iota
	BoardSTM32
)

func (b BoardFamily) String() string {
	switch b {
	case BoardSTM32:
		return "STM32"
	default:
		return "UNKNOWN"
	}
}

// dhcsrAddress is the Debug Halting Control and Status Register, whose
// bit 25 (S_RESET_ST) is polled after an STM32 jtag_reset. Flagged by
// the original implementation itself as possibly non-portable; treated
// here as strictly STM32-specific (spec.md §9 Open Questions).
const dhcsrAddress = 0xE000EDF0

const dhcsrResetBit = 25

// resetHosted implements the hosted reset shape: run "start" and wait
// for the temporary entry breakpoint to be auto-deleted.
func (a *Adapter) resetHosted(ctx context.Context) error {
	_, err := a.ctrl.Write(ctx, `-interpreter-exec console "start"`,
		[]map[string]any{{"type": "notify", "message": "breakpoint-deleted"}}, false)
	return err
}

// resetEmbedded implements the embedded reset shape: -target-reset, then
// a board-family-specific sequence.
func (a *Adapter) resetEmbedded(ctx context.Context) error {
	if _, err := a.ctrl.Write(ctx, "-target-reset",
		[]map[string]any{{"type": "result"}}, false); err != nil {
		return err
	}

	switch a.cfg.BoardFamily {
	case BoardSTM32:
		return a.resetSTM32(ctx)
	default:
		return a.resetUnknownBoard(ctx)
	}
}

func (a *Adapter) resetSTM32(ctx context.Context) error {
	if _, err := a.ctrl.Write(ctx, `-interpreter-exec console "monitor jtag_reset"`,
		[]map[string]any{{"type": "result"}}, false); err != nil {
		return err
	}

	for {
		words, err := a.readWordsRaw(ctx, dhcsrAddress, 4, 4)
		if err != nil {
			return err
		}
		if len(words) > 0 && words[0]&(1<<dhcsrResetBit) != 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (a *Adapter) resetUnknownBoard(ctx context.Context) error {
	if _, err := a.ctrl.Write(ctx, `-interpreter-exec console "monitor reset"`,
		[]map[string]any{{"type": "result"}}, false); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(1 * time.Second):
	}
	return nil
}
