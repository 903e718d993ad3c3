package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"gameops-controlplane/pkg/config"
	"gameops-controlplane/pkg/db"
	"gameops-controlplane/pkg/health"
	"gameops-controlplane/pkg/logger"
	"gameops-controlplane/pkg/redis"
	"gameops-controlplane/pkg/server"
	"gameops-controlplane/services/eligibility"
	"gameops-controlplane/services/event"
	"gameops-controlplane/services/rewardrequest"
	"gameops-controlplane/services/userstate"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		health.Module,
		fx.Provide(
			provideTracerProvider,
			provideSnowflakeNode,
		),
		eligibility.Module,
		userstate.Module,
		event.Module,
		event.Routes,
		rewardrequest.Module,
		rewardrequest.Routes,
		server.ProvideHTTPServer,
		fx.Invoke(instrument),
		fx.Invoke(migrate),
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideTracerProvider() trace.TracerProvider {
	return otel.GetTracerProvider()
}

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func instrument(cfg *config.Config, gormDB *gorm.DB) error {
	if err := db.Otel(gormDB); err != nil {
		return err
	}
	return db.Metric(gormDB, cfg.Database.DBNAME)
}

func migrate(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(
		&event.Event{},
		&event.Reward{},
		&rewardrequest.RewardRequest{},
	)
}
