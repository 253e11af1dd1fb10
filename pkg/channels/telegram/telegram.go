// Package telegram implements the Telegram long-poll channel driver:
// allow-list enforcement, a typing indicator, and Markdown replies, with
// an offset-tracked update loop.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Turn is invoked once per inbound text message; it drives one
// non-streaming agent loop turn and returns the reply text.
type Turn func(ctx context.Context, sessionKey string, text string) string

// Channel is the Telegram long-poll driver.
type Channel struct {
	bot     *tgbotapi.BotAPI
	allowed map[string]bool // empty or containing "*" => allow all
	turn    Turn

	running atomic.Bool
}

// New authenticates against the Telegram Bot API and builds a Channel.
// allowedList is the telegram_allowed config value, already split on
// commas.
func New(token string, allowedList []string, turn Turn) (*Channel, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("config-missing: telegram auth: %w", err)
	}

	allowed := make(map[string]bool, len(allowedList))
	for _, id := range allowedList {
		id = strings.TrimSpace(id)
		if id != "" {
			allowed[id] = true
		}
	}

	slog.Info("telegram bot authorized", "username", bot.Self.UserName)
	return &Channel{bot: bot, allowed: allowed, turn: turn}, nil
}

func (c *Channel) isAllowed(userID, username string) bool {
	if len(c.allowed) == 0 || c.allowed["*"] {
		return true
	}
	return c.allowed[userID] || (username != "" && c.allowed[username])
}

// Run starts the long-poll loop and blocks until ctx is canceled.
func (c *Channel) Run(ctx context.Context) {
	c.running.Store(true)
	defer c.running.Store(false)

	offset := 0
	for c.running.Load() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		req := tgbotapi.NewUpdate(offset)
		req.Timeout = 30

		updates, err := c.bot.GetUpdates(req)
		if err != nil {
			slog.Warn("telegram getUpdates failed", "error", err)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			c.handleMessage(ctx, update.Message)
		}
	}
}

// Stop signals Run's loop to exit on its next iteration.
func (c *Channel) Stop() {
	c.running.Store(false)
}

func (c *Channel) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	if !c.isAllowed(userID, msg.From.UserName) {
		slog.Warn("telegram message rejected by allow-list", "user", userID)
		return
	}

	chatID := msg.Chat.ID
	c.bot.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))

	sessionKey := "tg_" + strconv.FormatInt(chatID, 10)
	reply := c.turn(ctx, sessionKey, msg.Text)

	out := tgbotapi.NewMessage(chatID, reply)
	out.ParseMode = tgbotapi.ModeMarkdown
	if _, err := c.bot.Send(out); err != nil {
		slog.Error("telegram send failed", "error", err)
	}
}
