package build

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
)

// InitLogging wires the daemon's dual-stream logging: console output, plus
// a rotating log file when logDir is non-empty. It installs the resulting
// handler set as the slog default and returns it along with a cleanup
// function that flushes and closes the file rotator.
func InitLogging(logDir, level string) (*HandlerSet, func(), error) {
	handlers := []btclogv2.Handler{
		btclogv2.NewDefaultHandler(os.Stdout),
	}

	cleanup := func() {}
	if logDir != "" {
		writer := NewRotatingLogWriter()

		cfg := DefaultLogRotatorConfig()
		cfg.LogDir = logDir

		if err := writer.InitLogRotator(cfg); err != nil {
			return nil, nil, fmt.Errorf("failed to init log "+
				"rotation: %w", err)
		}

		handlers = append(handlers, btclogv2.NewDefaultHandler(writer))
		cleanup = func() {
			_ = writer.Close()
		}
	}

	set := NewHandlerSet(handlers...)

	lvl, ok := btclog.LevelFromString(level)
	if !ok {
		cleanup()
		return nil, nil, fmt.Errorf("unknown log level %q", level)
	}
	set.SetLevel(lvl)

	slog.SetDefault(slog.New(set))

	return set, cleanup, nil
}
