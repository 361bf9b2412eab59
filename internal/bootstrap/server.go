package bootstrap

import (
	"context"
	"net/http"

	"github.com/OrFisher/real-time-speech-processor/internal/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
)

func NewEchoServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	return e
}

func StartServer(lc fx.Lifecycle, e *echo.Echo, cfg *Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := e.Start(cfg.ServerAddr); err != nil && err != http.ErrServerClosed {
					e.Logger.Fatal(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}

// StopRecordingOnShutdown makes sure a live stream closes cleanly before
// the process exits.
func StopRecordingOnShutdown(lc fx.Lifecycle, controller *session.Controller) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return controller.StopRecording()
		},
	})
}

var ServerModule = fx.Options(
	fx.Provide(NewEchoServer),
	fx.Invoke(StartServer),
	fx.Invoke(StopRecordingOnShutdown),
)

func Run() {
	fx.New(
		fx.Provide(LoadConfig),
		InfrastructureModule,
		StoresModule,
		HandlersModule,
		ServerModule,
	).Run()
}
