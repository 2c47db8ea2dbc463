package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"taptoearn/internal/logger"
	"taptoearn/internal/repository"
	"taptoearn/internal/service"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot отвечает на команды игроков и открывает WebApp
type Bot struct {
	bot         *tgbotapi.BotAPI
	economy     *service.EconomyService
	leaderboard *repository.LeaderboardRepository
	webAppURL   string
	botUsername string
	stopCh      chan struct{}
	wg          sync.WaitGroup
	log         *slog.Logger
}

func New(api *tgbotapi.BotAPI, economy *service.EconomyService, leaderboard *repository.LeaderboardRepository, webAppURL, botUsername string) *Bot {
	log := logger.With("component", "bot")
	log.Info("bot authorized", "username", api.Self.UserName)

	return &Bot{
		bot:         api,
		economy:     economy,
		leaderboard: leaderboard,
		webAppURL:   webAppURL,
		botUsername: botUsername,
		stopCh:      make(chan struct{}),
		log:         log,
	}
}

// Start starts listening for commands. Blocks until Stop.
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop gracefully stops the bot
func (b *Bot) Stop() {
	b.log.Info("stopping bot...")
	close(b.stopCh)
	b.bot.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "play":
		b.handlePlay(msg)
	case "top":
		b.reply(msg, b.handleTop(ctx))
	case "invite":
		b.reply(msg, b.handleInvite(msg.From.ID))
	case "help":
		b.reply(msg, helpMessage())
	default:
		b.reply(msg, "❌ Неизвестная команда. Используйте /help для списка команд.")
	}
}

// handleStart регистрирует игрока и показывает кнопку WebApp.
// Параметр /start <tg_id> — реферальная ссылка пригласившего.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	username := msg.From.UserName
	snap, err := b.economy.GetOrCreatePlayer(ctx, msg.From.ID, username, msg.From.FirstName)
	if err != nil {
		b.log.Error("get or create player failed", "tg_id", msg.From.ID, "error", err)
		b.reply(msg, "❌ Что-то пошло не так, попробуйте позже.")
		return
	}

	// deep-link payload: tg_id пригласившего
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		var inviterTgID int64
		if _, err := fmt.Sscanf(arg, "%d", &inviterTgID); err == nil && inviterTgID != 0 {
			if err := b.economy.ApplyReferral(ctx, snap.ID, inviterTgID); err != nil {
				b.log.Debug("referral not applied", "invitee", snap.ID, "inviter_tg", inviterTgID, "error", err)
			}
		}
	}

	text := fmt.Sprintf("Привет, %s! 👋\n\nТапай монетку, прокачивай силу тапа и поднимайся в недельном топе. Победитель недели получает приз в TON.\n\n🪙 Монеты: %d\n⚡ Сила тапа: %d", msg.From.FirstName, snap.Coins, snap.TapPower)

	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyMarkup = webAppReplyKeyboard("🎮 Играть", b.webAppURL)

	if _, err := b.bot.Send(reply); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

func (b *Bot) handlePlay(msg *tgbotapi.Message) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, "Жми и зарабатывай 👇")
	reply.ReplyMarkup = webAppInlineKeyboard("🎮 Открыть игру", b.webAppURL)

	if _, err := b.bot.Send(reply); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

func (b *Bot) handleTop(ctx context.Context) string {
	entries, err := b.leaderboard.Top(ctx, repository.ScopeWeekly, 10)
	if err != nil {
		b.log.Error("leaderboard query failed", "error", err)
		return "❌ Не удалось получить топ, попробуйте позже."
	}
	if len(entries) == 0 {
		return "Пока никто не тапал на этой неделе. Будь первым!"
	}

	var sb strings.Builder
	sb.WriteString("🏆 Топ недели\n\n")
	for _, e := range entries {
		name := e.Username
		if name == "" {
			name = e.FirstName
		}
		sb.WriteString(fmt.Sprintf("%d. %s — %d 🪙\n", e.Rank, name, e.Score))
	}
	return sb.String()
}

func (b *Bot) handleInvite(tgID int64) string {
	link := fmt.Sprintf("https://t.me/%s?start=%d", b.botUsername, tgID)
	return fmt.Sprintf("Приглашай друзей и получай бонус в TON за каждого!\n\nТвоя ссылка:\n%s", link)
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyToMessageID = msg.MessageID

	if _, err := b.bot.Send(reply); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

func helpMessage() string {
	return `Команды:
/start — открыть игру
/play — кнопка запуска WebApp
/top — топ недели
/invite — реферальная ссылка
/help — это сообщение`
}
