package observability

import (
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/pitchtrack/internal/buildinfo"
	"github.com/tphakala/pitchtrack/internal/conf"
	"github.com/tphakala/pitchtrack/internal/errors"
)

// InitSentry enables error reporting to the DSN in settings. It reports false
// without error when no DSN is configured.
func InitSentry(settings *conf.Settings) (bool, error) {
	dsn := settings.Telemetry.SentryDSN
	if dsn == "" {
		return false, nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		SampleRate:       1.0,
		AttachStacktrace: false,
		Environment:      "production",
		ServerName:       "",
		Release:          "pitchtrack@" + buildinfo.Current().GetVersion(),
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	})
	if err != nil {
		return false, errors.New(err).
			Component("observability").
			Category(errors.CategoryConfiguration).
			Context("operation", "sentry-init").
			Build()
	}

	getLogger().Info("error reporting enabled")
	return true, nil
}

// InstallSentryHook reports every error built through the errors package.
func InstallSentryHook() {
	errors.AddErrorHook(CaptureError)
}

// CaptureError sends ee to Sentry tagged with its component and category.
// It is a no-op before InitSentry.
func CaptureError(ee *errors.EnhancedError) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentry.LevelError)
		scope.SetTag("component", ee.GetComponent())
		scope.SetTag("category", ee.GetCategory())
		sentry.CaptureException(ee)
	})
}

// FlushSentry waits up to timeout for queued reports to be sent.
func FlushSentry(timeout time.Duration) {
	sentry.Flush(timeout)
}

// applyPrivacyFilters strips host identifying data from an event.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if k != "component" && k != "category" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	return event
}
