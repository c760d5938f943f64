package channel

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func ProvideRepository(db *gorm.DB) Repository {
	return NewRepository(db)
}

func ProvideService(repo Repository, logger zerolog.Logger) *Service {
	return NewService(repo, logger)
}

func ProvideJSONHandler(service *Service) *JSONHandler {
	return NewJSONHandler(service)
}

var Set = wire.NewSet(ProvideRepository, ProvideService, ProvideJSONHandler)
