package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MembershipChecker reports whether a player belongs to a channel or group.
// A returned error means the check itself failed (API down, bad token) and
// is surfaced separately from "not a member".
type MembershipChecker interface {
	IsMember(ctx context.Context, chat string, tgID int64) (bool, error)
}

// BotMembershipChecker answers membership questions through the Bot API.
// The bot must be an admin of the target channel for getChatMember to work.
type BotMembershipChecker struct {
	bot *tgbotapi.BotAPI
}

func NewBotMembershipChecker(bot *tgbotapi.BotAPI) *BotMembershipChecker {
	return &BotMembershipChecker{bot: bot}
}

func (c *BotMembershipChecker) IsMember(_ context.Context, chat string, tgID int64) (bool, error) {
	member, err := c.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: chat,
			UserID:             tgID,
		},
	})
	if err != nil {
		return false, err
	}

	switch member.Status {
	case "creator", "administrator", "member":
		return true, nil
	case "restricted":
		// restricted users are still in the chat
		return member.IsMember, nil
	default: // "left", "kicked"
		return false, nil
	}
}
