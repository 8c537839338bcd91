package observability

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

// OTelHook forwards zerolog events to an OpenTelemetry logger.
type OTelHook struct {
	logger otellog.Logger
}

// NewOTelHook creates a hook emitting to the given logger.
func NewOTelHook(logger otellog.Logger) OTelHook {
	return OTelHook{logger: logger}
}

// Run implements zerolog.Hook.
func (h OTelHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if h.logger == nil || level == zerolog.NoLevel || level == zerolog.Disabled {
		return
	}

	var rec otellog.Record
	rec.SetTimestamp(time.Now())
	rec.SetBody(otellog.StringValue(msg))
	rec.SetSeverity(severity(level))
	rec.SetSeverityText(level.String())

	h.logger.Emit(e.GetCtx(), rec)
}

// EnableLogExport attaches the OTel hook to the global logger using the
// globally registered logger provider.
func EnableLogExport(serviceName string) {
	hook := NewOTelHook(global.GetLoggerProvider().Logger(serviceName))
	log.Logger = log.Logger.Hook(hook)
}

func severity(level zerolog.Level) otellog.Severity {
	switch level {
	case zerolog.TraceLevel:
		return otellog.SeverityTrace
	case zerolog.DebugLevel:
		return otellog.SeverityDebug
	case zerolog.InfoLevel:
		return otellog.SeverityInfo
	case zerolog.WarnLevel:
		return otellog.SeverityWarn
	case zerolog.ErrorLevel:
		return otellog.SeverityError
	case zerolog.FatalLevel:
		return otellog.SeverityFatal
	case zerolog.PanicLevel:
		return otellog.SeverityFatal4
	}
	return otellog.SeverityUndefined
}
