//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"messenger/config"
	"messenger/internal/api"
	"messenger/internal/block"
	"messenger/internal/channel"
	"messenger/internal/conversation"
	"messenger/internal/database"
	"messenger/internal/message"
	"messenger/internal/profile"
	"messenger/internal/storage"
	"messenger/internal/verification"
)

var AppSet = wire.NewSet(
	provideGorm,
	providePreviewUpdaters,
	profile.Set,
	block.Set,
	conversation.Set,
	channel.Set,
	message.Set,
	verification.Set,
	api.Set,
)

func InitializeServer(cfg *config.Config, db *database.Database, objects storage.ObjectStorage, logger zerolog.Logger) *api.Server {
	wire.Build(AppSet)

	return &api.Server{}
}

func provideGorm(db *database.Database) *gorm.DB {
	return db.DB
}

func providePreviewUpdaters(conversations conversation.Repository, channels channel.Repository) message.PreviewUpdaters {
	return message.PreviewUpdaters{
		message.ChatDirect:  message.PreviewUpdaterFunc(conversations.RecordDirectMessage),
		message.ChatGroup:   message.PreviewUpdaterFunc(conversations.RecordGroupMessage),
		message.ChatChannel: channels,
	}
}
