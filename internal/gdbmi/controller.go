package gdbmi

import (
	"context"
	"fmt"

	"github.com/sbancuz/fit/internal/logging"
)

// Controller drives a Transport's write/wait-for-match cycle, the Go
// analogue of original_source/fit/interfaces/gdb/controller.py's
// GDBController.write/await_response.
type Controller struct {
	tr     *Transport
	logger *logging.Logger
}

// NewController wraps tr.
func NewController(tr *Transport, logger *logging.Logger) *Controller {
	return &Controller{tr: tr, logger: logger}
}

// Write sends cmd and, when wait is non-nil, blocks (subject to ctx)
// until a response record satisfies one of the wait alternatives (an OR
// — see AnyMatch) or an MI `^error` record arrives. When wholeResponse is
// true every record accumulated up to the match is returned; otherwise
// only the matching record.
func (c *Controller) Write(ctx context.Context, cmd string, wait []map[string]any, wholeResponse bool) ([]*Record, error) {
	if c.logger != nil {
		c.logger.Debug("gdbmi --> ", "command", cmd)
	}
	if err := c.tr.Write(cmd); err != nil {
		return nil, err
	}
	if wait == nil {
		return nil, nil
	}
	return c.awaitResponse(ctx, wait, wholeResponse)
}

func (c *Controller) awaitResponse(ctx context.Context, wait []map[string]any, wholeResponse bool) ([]*Record, error) {
	var accumulated []*Record
	for {
		line, ok := c.tr.NextLine(ctx)
		if !ok {
			if ctx.Err() != nil {
				return accumulated, ctx.Err()
			}
			return accumulated, fmt.Errorf("gdbmi: connection closed while awaiting response")
		}

		rec, err := ParseLine(line)
		if err != nil {
			if c.logger != nil {
				c.logger.Warn("gdbmi: failed to parse line", "line", line, "error", err.Error())
			}
			continue
		}
		if rec == nil {
			continue
		}
		if c.logger != nil {
			c.logger.Debug("gdbmi <-- ", "type", string(rec.Type), "message", rec.Message)
		}
		accumulated = append(accumulated, rec)

		if rec.IsError() {
			return accumulated, fmt.Errorf("gdbmi: MI error: %s", rec.ErrorMessage())
		}

		if AnyMatch(rec.ToMap(), wait) {
			if wholeResponse {
				return accumulated, nil
			}
			return []*Record{rec}, nil
		}
	}
}
