package report

import (
	"log"
	"os"
	"runtime"
	"time"

	"github.com/getsentry/sentry-go"
)

// Setup initializes the Sentry client. An empty DSN leaves reporting disabled,
// which keeps local runs and tests quiet.
func Setup(dsn, env, version string) error {
	if dsn == "" {
		log.Println("SENTRY_DSN not set, error reporting disabled")
		return nil
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		Release:          version,
		EnableTracing:    true,
		TracesSampleRate: 0.2,
	}); err != nil {
		return err
	}

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("go_version", runtime.Version())
		scope.SetContext("host_info", map[string]interface{}{
			"hostname": hostname(),
		})
	})
	return nil
}

func Flush() {
	sentry.Flush(2 * time.Second)
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

// Options carries optional data for a report.
type Options struct {
	Tags  map[string]string
	Extra map[string]interface{}
	Level sentry.Level
}

// Error reports err to Sentry. Nil errors are ignored; the level defaults to error.
func Error(err error, opts Options) {
	if err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		level := opts.Level
		if level == "" {
			level = sentry.LevelError
		}
		scope.SetLevel(level)
		for k, v := range opts.Tags {
			scope.SetTag(k, v)
		}
		if opts.Extra != nil {
			scope.SetContext("extra", opts.Extra)
		}
		sentry.CaptureException(err)
	})
}
