package conversation

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"messenger/internal/profile"
)

func ProvideRepository(db *gorm.DB) Repository {
	return NewRepository(db)
}

func ProvideService(repo Repository, profiles *profile.Service, logger zerolog.Logger) *Service {
	return NewService(repo, profiles, logger)
}

func ProvideJSONHandler(service *Service) *JSONHandler {
	return NewJSONHandler(service)
}

var Set = wire.NewSet(ProvideRepository, ProvideService, ProvideJSONHandler)
