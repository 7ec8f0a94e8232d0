//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"resize-server/internal/config"
	domain "resize-server/internal/domain/image"
	"resize-server/internal/infrastructure/database"
	"resize-server/internal/infrastructure/logger"
	repo "resize-server/internal/infrastructure/repository/imageindex"
	"resize-server/internal/infrastructure/transform"
	"resize-server/internal/interfaces/httpserver"
)

var imageSet = wire.NewSet(
	repo.NewRepository,
	wire.Bind(new(domain.Index), new(*repo.Repository)),
	provideStorage,
	transform.NewResizer,
	wire.Bind(new(domain.Resizer), new(*transform.Resizer)),
	domain.NewService,
)

// BuildApplication assembles the image API with Wire.
func BuildApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		config.Load,
		logger.New,
		newDatabaseConfig,
		newGormDB,
		imageSet,
		httpserver.New,
		NewApplication,
	)
	return nil, nil
}

func newGormDB(ctx context.Context, cfg database.Config, log zerolog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		return nil, err
	}
	return db, nil
}
