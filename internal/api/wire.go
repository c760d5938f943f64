package api

import (
	"github.com/google/wire"
	"github.com/rs/zerolog"

	"messenger/internal/block"
	"messenger/internal/channel"
	"messenger/internal/conversation"
	"messenger/internal/database"
	"messenger/internal/message"
	"messenger/internal/profile"
	"messenger/internal/verification"
)

func ProvideHealthChecker(db *database.Database, logger zerolog.Logger) *HealthChecker {
	return NewHealthChecker(db, logger)
}

func ProvideHandlers(
	profiles *profile.JSONHandler,
	blocks *block.JSONHandler,
	conversations *conversation.JSONHandler,
	channels *channel.JSONHandler,
	messages *message.JSONHandler,
	verifications *verification.JSONHandler,
) *Handlers {
	return &Handlers{
		Profiles:      profiles,
		Blocks:        blocks,
		Conversations: conversations,
		Channels:      channels,
		Messages:      messages,
		Verification:  verifications,
	}
}

var Set = wire.NewSet(
	NewChatAccessPolicy,
	wire.Bind(new(message.AccessPolicy), new(*ChatAccessPolicy)),
	ProvideHealthChecker,
	ProvideHandlers,
	NewServer,
)
