package main

import (
	"strings"

	"github.com/sbancuz/fit/internal/logging"
)

// parseSetFlags parses --set key=value flags into a dotted-path override
// map, the same shape as cmd/chaos-runner/run.go's parseSetFlags.
func parseSetFlags(setFlags []string) map[string]string {
	overrides := make(map[string]string, len(setFlags))
	for _, flag := range setFlags {
		parts := strings.SplitN(flag, "=", 2)
		if len(parts) == 2 {
			overrides[parts[0]] = parts[1]
		}
	}
	return overrides
}

func newLogger() *logging.Logger {
	return logging.New(logging.Config{
		Level:  logging.Level(logLevel),
		Format: logging.Format(logFormat),
	})
}
