// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/teachdrive/teachdrive/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after DB connections and schema/index setup are complete,
// but before the HTTP handler is built and requests are served.
//
// Returning a non-nil error will abort startup and prevent the server from
// starting.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	// Handler operation timeouts can be tuned per deployment.
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("configured operation timeouts from environment", zap.Int("count", n))
	}

	logger.Info("teachdrive ready",
		zap.String("blob_root", deps.Blobs.Root()),
		zap.String("database", appCfg.MongoDatabase))
	return nil
}
