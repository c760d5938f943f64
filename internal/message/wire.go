package message

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"messenger/internal/profile"
)

func ProvideRepository(db *gorm.DB) Repository {
	return NewRepository(db)
}

func ProvideService(repo Repository, profiles *profile.Service, previews PreviewUpdaters, logger zerolog.Logger) *Service {
	return NewService(repo, profiles, previews, logger)
}

func ProvideJSONHandler(service *Service, policy AccessPolicy) *JSONHandler {
	return NewJSONHandler(service, policy)
}

var Set = wire.NewSet(ProvideRepository, ProvideService, ProvideJSONHandler)
