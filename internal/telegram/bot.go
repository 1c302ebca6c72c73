// Package telegram exposes the advisor panel in chat: any allowed user
// can trigger a full board run with /analyze, /strategy or /csuite and
// receives the strategy brief as a reply.
package telegram

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/towerhq/boardroom/internal/board"
	"github.com/towerhq/boardroom/internal/config"
)

type Bot struct {
	bot     *telego.Bot
	handler *th.BotHandler
	engine  *board.Engine
	cfg     config.TelegramConfig
	cancel  context.CancelFunc
}

func NewBot(cfg config.TelegramConfig, engine *board.Engine) (*Bot, error) {
	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Bot{
		bot:    bot,
		engine: engine,
		cfg:    cfg,
	}, nil
}

func (b *Bot) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	updates, err := b.bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("start long polling: %w", err)
	}

	handler, err := th.NewBotHandler(b.bot, updates)
	if err != nil {
		cancel()
		return fmt.Errorf("create handler: %w", err)
	}
	b.handler = handler

	handler.HandleMessage(func(hctx *th.Context, message telego.Message) error {
		b.handleMessage(ctx, message)
		return nil
	})

	go handler.Start()

	<-ctx.Done()
	_ = handler.Stop()
	return nil
}

func (b *Bot) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.handler != nil {
		_ = b.handler.Stop()
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg telego.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if len(b.cfg.AllowFrom) > 0 {
		allowed := false
		for _, id := range b.cfg.AllowFrom {
			if id == userID {
				allowed = true
				break
			}
		}
		if !allowed {
			slog.Warn("unauthorized telegram user", "user_id", userID, "chat_id", chatID)
			return
		}
	}

	text := msg.Text
	if text == "" {
		return
	}

	idea, matched := splitCommand(text)
	if !matched {
		return
	}
	if idea == "" {
		_ = b.SendMessage(ctx, chatID, "Give me an idea to analyze, e.g. /analyze AI-powered meal planning")
		return
	}

	_ = b.sendChatAction(ctx, chatID, "typing")

	run, err := b.engine.Evaluate(ctx, idea, nil)
	if err != nil {
		slog.Error("board run from telegram failed", "chat", chatID, "error", err)
		_ = b.SendMessage(ctx, chatID, "Sorry, the board could not complete the analysis.")
		return
	}

	reply := board.FormatSummary(run) + "\n\n" + board.FormatBrief(run)
	if err := b.SendMessage(ctx, chatID, toTelegramMarkdown(reply)); err != nil {
		slog.Error("failed to send telegram reply", "chat", chatID, "error", err)
	}
}

func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string) error {
	chunks := chunkMessage(text, 4096)
	for _, chunk := range chunks {
		msg := tu.Message(tu.ID(chatID), chunk)
		if _, err := b.bot.SendMessage(ctx, msg); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
	return nil
}

func (b *Bot) sendChatAction(ctx context.Context, chatID int64, action string) error {
	return b.bot.SendChatAction(ctx, tu.ChatAction(tu.ID(chatID), action))
}
