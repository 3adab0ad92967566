// Package telegram delivers rental reports to a Telegram chat.
// It formats a pipeline.Report into a MarkdownV2 summary, retries delivery,
// and answers /summary commands with a freshly computed report.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rewired-gh/bikeshare/internal/logger"
	"github.com/rewired-gh/bikeshare/internal/pipeline"
)

// sender is the part of tgbotapi.BotAPI the client uses
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ReportFunc computes the report sent in reply to /summary
type ReportFunc func(ctx context.Context) (pipeline.Report, error)

// Client handles Telegram notifications
type Client struct {
	bot            *tgbotapi.BotAPI
	api            sender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	c := newClient(bot, chatIDInt, maxRetries, retryDelayBase)
	c.bot = bot
	return c, nil
}

func newClient(api sender, chatID int64, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		api:            api,
		chatID:         chatID,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// SendReport sends a report summary to the configured chat
func (c *Client) SendReport(report pipeline.Report) error {
	return c.send(c.chatID, formatReport(report))
}

func (c *Client) send(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		_, err := c.api.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		logger.Warn("Telegram send attempt %d/%d failed: %v", i+1, c.maxRetries, err)
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// ListenForCommands answers /summary until ctx is cancelled.
// Commands from chats other than the configured one are ignored.
func (c *Client) ListenForCommands(ctx context.Context, compute ReportFunc) {
	if c.bot == nil {
		return
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := c.bot.GetUpdatesChan(u)
	defer c.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			c.handleUpdate(ctx, update, compute)
		}
	}
}

func (c *Client) handleUpdate(ctx context.Context, update tgbotapi.Update, compute ReportFunc) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() || msg.Chat == nil || msg.Chat.ID != c.chatID {
		return
	}

	switch msg.Command() {
	case "summary":
		report, err := compute(ctx)
		if err != nil {
			logger.Error("Failed to compute report for /summary: %v", err)
			_ = c.send(msg.Chat.ID, escapeMarkdownV2("Report unavailable: "+err.Error()))
			return
		}
		if err := c.send(msg.Chat.ID, formatReport(report)); err != nil {
			logger.Error("Failed to reply to /summary: %v", err)
		}
	default:
		logger.Debug("Ignoring command /%s", msg.Command())
	}
}

// formatReport formats a report into a Telegram message
func formatReport(r pipeline.Report) string {
	var b strings.Builder

	b.WriteString("🚲 *Bike Rental Summary*\n\n")
	if !r.GeneratedAt.IsZero() {
		b.WriteString(fmt.Sprintf("📅 Generated: %s\n", escapeMarkdownV2(r.GeneratedAt.Format("2006-01-02 15:04:05"))))
	}
	b.WriteString(fmt.Sprintf("🔎 View: %s by %s\n\n", escapeMarkdownV2(r.Granularity), escapeMarkdownV2(r.Breakdown)))

	b.WriteString(fmt.Sprintf("Total rentals: *%s*\n", formatCount(r.TotalRentals)))
	b.WriteString(fmt.Sprintf("Records: %s\n", formatCount(int64(r.Records))))

	if r.Records == 0 {
		b.WriteString("\nNo records match the current filters\\.\n")
		return b.String()
	}

	if r.Peak != nil {
		b.WriteString(fmt.Sprintf("⏰ Peak hour: *%02d:00* with %s rentals\n", r.Peak.Hour, formatCount(r.Peak.Count)))
	}

	if len(r.Category.Entries) > 0 {
		b.WriteString(fmt.Sprintf("\n📊 By %s:\n", escapeMarkdownV2(r.Breakdown)))
		for _, e := range r.Category.Entries {
			b.WriteString(fmt.Sprintf("  • %s: %s \\(%s\\)\n",
				escapeMarkdownV2(e.Key), formatCount(e.Total), escapeMarkdownV2(formatShare(e.Total, r.TotalRentals))))
		}
	}

	if len(r.Buckets.Entries) > 0 {
		b.WriteString("\n🪣 Rental bins:\n")
		for _, e := range r.Buckets.Entries {
			b.WriteString(fmt.Sprintf("  • %s: %s records\n", escapeMarkdownV2(e.Key), formatCount(int64(e.Records))))
		}
	}

	return b.String()
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	var b strings.Builder
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}

// formatCount groups thousands with commas
func formatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if neg {
		return "\\-" + s
	}
	return s
}

// formatShare renders part/total as a percentage
func formatShare(part, total int64) string {
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(total))
}
