package backtrace

import (
	"log/slog"
	"os"
)

// Option configures a decorated function.
type Option func(*config)

// config holds the resolved options of one Wrap call.
type config struct {
	traceOnSuccess bool
	logFile        string
	useRich        bool
	logger         *slog.Logger
	capture        *string
	name           string
}

func newConfig(opts []Option) config {
	c := config{
		traceOnSuccess: true,
		useRich:        true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&c)
		}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	return c
}

// TraceOnSuccess controls whether a trace is emitted when no exception was
// raised. Traces with exceptions, handled or not, are always emitted.
// The default is true.
func TraceOnSuccess(on bool) Option {
	return func(c *config) { c.traceOnSuccess = on }
}

// LogFile appends traces to path instead of writing them to standard output.
// If the file cannot be opened the trace goes to standard output and the
// failure is logged.
func LogFile(path string) Option {
	return func(c *config) { c.logFile = path }
}

// UseRich selects the bordered, colored rendering (true, the default) or the
// ASCII plain text rendering (false).
func UseRich(on bool) Option {
	return func(c *config) { c.useRich = on }
}

// WithLogger sets the logger used for the tracer's own failures.
// If not set, warnings go to standard error as text.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// Capture stores the rendered trace in *dst instead of emitting it.
// Capture takes precedence over LogFile.
func Capture(dst *string) Option {
	return func(c *config) { c.capture = dst }
}

// Name overrides the label of the root node, which otherwise is the
// function's symbol name (e.g. "pkg.TestX.func1" for closures).
func Name(name string) Option {
	return func(c *config) { c.name = name }
}
