package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
	})
}

// stopwatch times one command and logs the result with a took= field.
type stopwatch struct {
	began  time.Time
	logger *log.Logger
}

func startStopwatch(l *log.Logger) stopwatch {
	return stopwatch{began: time.Now(), logger: l}
}

func (s stopwatch) report(msg string, keyvals ...any) {
	took := time.Since(s.began).Round(time.Millisecond)
	s.logger.Info(msg, append(keyvals, "took", took)...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext falls back to the package default so commands invoked
// without the root's PersistentPreRun (tests) still log somewhere.
func loggerFromContext(ctx context.Context) *log.Logger {
	l, ok := ctx.Value(loggerKey{}).(*log.Logger)
	if !ok {
		return log.Default()
	}
	return l
}
