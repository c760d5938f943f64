package verification

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"messenger/config"
	"messenger/internal/profile"
)

// ProvideSender returns nil when Twilio is not configured, which puts the
// service in development mode.
func ProvideSender(cfg *config.Config) Sender {
	if !cfg.SMSEnabled() {
		return nil
	}
	return NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
}

func ProvideRepository(db *gorm.DB, profiles profile.Repository) Repository {
	return NewRepository(db, NewGormStorage(), profiles)
}

func ProvideService(repo Repository, sender Sender, logger zerolog.Logger) *Service {
	return NewService(repo, sender, logger)
}

func ProvideJSONHandler(service *Service) *JSONHandler {
	return NewJSONHandler(service)
}

var Set = wire.NewSet(ProvideSender, ProvideRepository, ProvideService, ProvideJSONHandler)
