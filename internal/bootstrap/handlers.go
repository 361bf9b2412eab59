package bootstrap

import (
	"log/slog"
	"os"

	"github.com/OrFisher/real-time-speech-processor/internal/api"
	"github.com/OrFisher/real-time-speech-processor/internal/capture"
	"github.com/OrFisher/real-time-speech-processor/internal/health"
	"github.com/OrFisher/real-time-speech-processor/internal/history"
	"github.com/OrFisher/real-time-speech-processor/internal/keywords"
	"github.com/OrFisher/real-time-speech-processor/internal/render"
	"github.com/OrFisher/real-time-speech-processor/internal/session"
	"github.com/OrFisher/real-time-speech-processor/internal/transport"
	"github.com/OrFisher/real-time-speech-processor/internal/upload"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const version = "0.1.0"

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ProvideLogger writes to stderr; stdout belongs to the transcript and
// alert renderers.
func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideCaptureSource(cfg *Config, logger *slog.Logger) capture.Source {
	src := capture.NewStreamSource(cfg.CaptureDevice, logger)
	src.ChunkSize = cfg.CaptureChunkSize
	src.Interval = cfg.CaptureInterval
	return src
}

func ProvideTranscriptRenderer(cache *keywords.Cache) *render.TranscriptRenderer {
	return render.NewTranscriptRenderer(os.Stdout, cache)
}

func ProvideAlertRenderer(cfg *Config) *render.AlertRenderer {
	return render.NewAlertRenderer(os.Stdout, cfg.AlertLifetime)
}

func ProvideController(
	cfg *Config,
	source capture.Source,
	transcripts *render.TranscriptRenderer,
	alerts *render.AlertRenderer,
	historyStore *history.Store,
	logger *slog.Logger,
) *session.Controller {
	return session.NewController(session.Config{
		Dial: func(sessionID string) (session.Transport, error) {
			return transport.Dial(cfg.BackendURL, sessionID, logger)
		},
		Source:         source,
		Transcripts:    transcripts,
		Alerts:         alerts,
		History:        historyStore,
		ReconnectDelay: cfg.ReconnectDelay,
	}, logger)
}

func ProvideAPIHandler(
	controller *session.Controller,
	kwStore *keywords.Store,
	historyStore *history.Store,
	uploads *upload.Client,
	logger *slog.Logger,
) *api.Handler {
	return api.NewHandler(controller, kwStore, historyStore, uploads, logger.With("handler", "api"))
}

func ProvideHealthHandler(db *gorm.DB, cfg *Config, controller *session.Controller) *health.Handler {
	return health.NewHandler(db, cfg.BackendURL, controller, version)
}

type HandlerParams struct {
	fx.In

	APIHandler    *api.Handler
	HealthHandler *health.Handler
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	params.APIHandler.RegisterRoutes(e.Group("/v1"))
	params.HealthHandler.RegisterRoutes(e)
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideCaptureSource,
		ProvideTranscriptRenderer,
		ProvideAlertRenderer,
		ProvideController,
		ProvideAPIHandler,
		ProvideHealthHandler,
	),
	fx.Invoke(RegisterRoutes),
)
