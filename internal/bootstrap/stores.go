package bootstrap

import (
	"context"
	"log/slog"

	"github.com/OrFisher/real-time-speech-processor/internal/history"
	"github.com/OrFisher/real-time-speech-processor/internal/keywords"
	"github.com/OrFisher/real-time-speech-processor/internal/upload"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideHistoryStore(db *gorm.DB) *history.Store {
	return history.NewStore(db)
}

func ProvideKeywordCache() *keywords.Cache {
	return keywords.NewCache()
}

func ProvideKeywordClient(cfg *Config) *keywords.Client {
	return keywords.NewClient(cfg.BackendURL, cfg.RequestTimeout)
}

func ProvideKeywordStore(client *keywords.Client, cache *keywords.Cache, logger *slog.Logger) *keywords.Store {
	return keywords.NewStore(client, cache, logger)
}

func ProvideUploadClient(cfg *Config) *upload.Client {
	return upload.NewClient(cfg.BackendURL, cfg.RequestTimeout)
}

func RunMigrations(historyStore *history.Store) error {
	return historyStore.Migrate()
}

// WarmKeywordCache seeds highlighting from the backend at startup. The
// backend being down is not fatal; the cache fills on the next successful
// refresh or mutation.
func WarmKeywordCache(lc fx.Lifecycle, store *keywords.Store, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.Refresh(ctx); err != nil {
				logger.Warn("keyword warm-up failed, starting with an empty cache", "error", err)
			}
			return nil
		},
	})
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideHistoryStore,
		ProvideKeywordCache,
		ProvideKeywordClient,
		ProvideKeywordStore,
		ProvideUploadClient,
	),
	fx.Invoke(RunMigrations),
	fx.Invoke(WarmKeywordCache),
)
