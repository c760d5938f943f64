package api

import (
	"context"
	"fmt"

	"messenger/infrastructure"
	"messenger/internal/block"
	"messenger/internal/channel"
	"messenger/internal/conversation"
	"messenger/internal/message"
)

// ChatAccessPolicy gates the message store. Direct chats require both
// participants to be unblocked, groups require membership and channels only
// accept posts from admins.
type ChatAccessPolicy struct {
	conversations *conversation.Service
	channels      *channel.Service
	blocks        *block.Service
}

func NewChatAccessPolicy(conversations *conversation.Service, channels *channel.Service, blocks *block.Service) *ChatAccessPolicy {
	return &ChatAccessPolicy{conversations: conversations, channels: channels, blocks: blocks}
}

func (p *ChatAccessPolicy) CanSend(ctx context.Context, callerID string, chatType message.ChatType, chatID string) error {
	switch chatType {
	case message.ChatDirect:
		participants, err := p.conversations.Participants(ctx, chatID)
		if err != nil {
			return err
		}
		other, ok := otherParticipant(participants, callerID)
		if !ok {
			return fmt.Errorf("not a participant: %w", infrastructure.ErrForbidden)
		}
		blocked, err := p.blocks.EitherBlocked(ctx, callerID, other)
		if err != nil {
			return err
		}
		if blocked {
			return fmt.Errorf("conversation is blocked: %w", infrastructure.ErrForbidden)
		}
		return nil
	case message.ChatGroup:
		return p.requireGroupMember(ctx, callerID, chatID)
	case message.ChatChannel:
		if _, err := p.channels.Get(ctx, callerID, chatID); err != nil {
			return err
		}
		admin, err := p.channels.IsAdmin(ctx, chatID, callerID)
		if err != nil {
			return err
		}
		if !admin {
			return fmt.Errorf("only channel admins can post: %w", infrastructure.ErrForbidden)
		}
		return nil
	default:
		return fmt.Errorf("unknown chat type %q: %w", chatType, infrastructure.ErrInvalidInput)
	}
}

// CanRead checks membership only; blocking does not hide history.
func (p *ChatAccessPolicy) CanRead(ctx context.Context, callerID string, chatType message.ChatType, chatID string) error {
	switch chatType {
	case message.ChatDirect:
		ok, err := p.conversations.IsParticipant(ctx, chatID, callerID)
		if err != nil {
			return err
		}
		if !ok {
			return infrastructure.ErrNotFound
		}
		return nil
	case message.ChatGroup:
		return p.requireGroupMember(ctx, callerID, chatID)
	case message.ChatChannel:
		ok, err := p.channels.CanRead(ctx, chatID, callerID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("channel is private: %w", infrastructure.ErrForbidden)
		}
		return nil
	default:
		return fmt.Errorf("unknown chat type %q: %w", chatType, infrastructure.ErrInvalidInput)
	}
}

func (p *ChatAccessPolicy) requireGroupMember(ctx context.Context, callerID, groupID string) error {
	ok, err := p.conversations.IsGroupMember(ctx, groupID, callerID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("not a group member: %w", infrastructure.ErrForbidden)
	}
	return nil
}

func otherParticipant(participants []string, callerID string) (string, bool) {
	member := false
	other := ""
	for _, id := range participants {
		if id == callerID {
			member = true
		} else {
			other = id
		}
	}
	return other, member
}
