package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/temryazanov/gonao/internal/history"
	"github.com/temryazanov/gonao/saucenao"
)

const historyPageSize = 10

type Handler struct {
	bot *Bot
}

func NewHandler(bot *Bot) *Handler {
	return &Handler{bot: bot}
}

func (h *Handler) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	h.bot.logger.Info("received message",
		zap.Int64("chat_id", msg.Chat.ID),
		zap.Bool("is_command", msg.IsCommand()),
		zap.Bool("has_photo", len(msg.Photo) > 0),
	)

	switch {
	case msg.IsCommand():
		h.handleCommand(ctx, msg)
	case len(msg.Photo) > 0:
		h.handlePhoto(ctx, msg)
	case looksLikeURL(msg.Text):
		h.searchAndReply(ctx, msg.Chat.ID, strings.TrimSpace(msg.Text), "url")
	default:
		h.bot.Send(msg.Chat.ID, "Send me a picture or an image URL and I will find its source. /help for details.")
	}
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg)
	case "help":
		h.handleHelp(ctx, msg)
	case "sauce":
		h.handleSauce(ctx, msg)
	case "quota":
		h.handleQuota(ctx, msg)
	case "history":
		h.handleHistory(ctx, msg)
	default:
		h.bot.Send(msg.Chat.ID, "Unknown command. Use /help.")
	}
}

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	h.bot.Send(msg.Chat.ID, "Hi! Send me a picture (or an image URL) and I will look up where it came from via SauceNAO.")
}

func (h *Handler) handleHelp(ctx context.Context, msg *tgbotapi.Message) {
	helpText := `<b>Commands:</b>

/sauce URL - Look up an image by URL
/quota - Show the remaining SauceNAO quota
/history - Your recent lookups
/help - This message

You can also just send a photo or paste an image URL.`

	h.bot.Send(msg.Chat.ID, helpText)
}

func (h *Handler) handleSauce(ctx context.Context, msg *tgbotapi.Message) {
	target := strings.TrimSpace(msg.CommandArguments())
	if target == "" {
		h.bot.Send(msg.Chat.ID, "Give me a URL: /sauce https://example.com/image.jpg")
		return
	}
	if !looksLikeURL(target) {
		h.bot.Send(msg.Chat.ID, "That does not look like an http(s) URL.")
		return
	}

	h.searchAndReply(ctx, msg.Chat.ID, target, "url")
}

func (h *Handler) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	// Telegram sends several sizes; the last one is the largest.
	photo := msg.Photo[len(msg.Photo)-1]

	fileURL, err := h.bot.api.GetFileDirectURL(photo.FileID)
	if err != nil {
		h.bot.logger.Error("failed to resolve photo file", zap.Error(err))
		h.bot.Send(msg.Chat.ID, "Could not fetch that photo from Telegram. Try again.")
		return
	}

	h.searchAndReply(ctx, msg.Chat.ID, fileURL, "photo")
}

func (h *Handler) searchAndReply(ctx context.Context, chatID int64, target, kind string) {
	if !h.bot.limiter.Allow(chatID) {
		if h.bot.metrics != nil {
			h.bot.metrics.RecordRateLimitHit()
		}
		wait := time.Until(h.bot.limiter.ResetAt(chatID)).Round(time.Second)
		h.bot.Send(chatID, fmt.Sprintf("Slow down a little. Try again in %s.", wait))
		return
	}

	h.bot.SendTyping(chatID)

	start := time.Now()
	results, err := h.bot.sauce.Search(ctx, target, nil)
	duration := time.Since(start)

	if err != nil {
		h.bot.logger.Error("search failed",
			zap.Int64("chat_id", chatID),
			zap.String("kind", kind),
			zap.Error(err),
		)
		if h.bot.metrics != nil {
			h.bot.metrics.RecordSearch(kind, "error", duration)
		}
		h.bot.Send(chatID, mapErrorToMessage(err))
		return
	}

	if h.bot.metrics != nil {
		h.bot.metrics.RecordSearch(kind, "ok", duration)
		rl := h.bot.sauce.RateLimit()
		h.bot.metrics.SetQuota(rl.ShortLimit, rl.LongLimit, rl.ShortRemaining, rl.LongRemaining)
	}

	h.recordHistory(ctx, chatID, target, kind, results)

	for _, part := range SplitMessage(FormatSauceList(results), maxMessageLen) {
		if err := h.bot.Send(chatID, part); err != nil {
			h.bot.logger.Error("failed to send reply", zap.Error(err))
			return
		}
	}
}

func (h *Handler) recordHistory(ctx context.Context, chatID int64, target, kind string, results []saucenao.Sauce) {
	if h.bot.history == nil {
		return
	}

	best := 0.0
	for _, s := range results {
		if s.Similarity > best {
			best = s.Similarity
		}
	}

	rl := h.bot.sauce.RateLimit()
	rec := &history.Record{
		ChatID:         chatID,
		Target:         target,
		Remote:         kind == "url",
		ResultCount:    len(results),
		BestSimilarity: best,
		ShortRemaining: rl.ShortRemaining,
		LongRemaining:  rl.LongRemaining,
	}

	if err := h.bot.history.Create(ctx, rec); err != nil {
		// history is best-effort, never blocks the reply
		h.bot.logger.Warn("failed to record search history", zap.Error(err))
	}
}

func (h *Handler) handleQuota(ctx context.Context, msg *tgbotapi.Message) {
	h.bot.Send(msg.Chat.ID, FormatQuota(h.bot.sauce.RateLimit()))
}

func (h *Handler) handleHistory(ctx context.Context, msg *tgbotapi.Message) {
	if h.bot.history == nil {
		h.bot.Send(msg.Chat.ID, "History is not enabled on this bot.")
		return
	}

	records, err := h.bot.history.ListByChat(ctx, msg.Chat.ID, historyPageSize)
	if err != nil {
		h.bot.logger.Error("failed to list history", zap.Error(err))
		h.bot.Send(msg.Chat.ID, "Something went wrong. Try again later.")
		return
	}

	if len(records) == 0 {
		h.bot.Send(msg.Chat.ID, "No lookups yet. Send me a picture!")
		return
	}

	h.bot.Send(msg.Chat.ID, FormatHistory(records))
}

func looksLikeURL(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func mapErrorToMessage(err error) string {
	var apiErr *saucenao.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("SauceNAO rejected the request (code %d): %s", apiErr.Code, apiErr.Message)
	}

	switch {
	case errors.Is(err, saucenao.ErrInvalidParameters):
		return "Invalid search parameters."
	case errors.Is(err, saucenao.ErrRequestFailed):
		return "SauceNAO is unreachable right now. Try again later."
	case errors.Is(err, saucenao.ErrInvalidParse), errors.Is(err, saucenao.ErrInvalidResponse):
		return "SauceNAO returned something I could not read. Try again later."
	default:
		return "Something went wrong. Try again later."
	}
}
