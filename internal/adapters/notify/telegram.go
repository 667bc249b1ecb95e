package notify

// telegram.go: notificaciones por Telegram: cambios de la cola de revisión y
// alertas del monitor. Los envíos se reintentan con espera lineal.

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/alejandrodnm/polyarb/internal/domain"
)

// MessageSender es el subconjunto de *tgbotapi.BotAPI que usamos.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram implementa ports.QueueObserver y ports.AlertSender.
type Telegram struct {
	bot            MessageSender
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewTelegram crea el bot (valida el token contra la API) y el notificador.
func NewTelegram(botToken, chatID string, maxRetries int) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("notify.NewTelegram: create bot: %w", err)
	}
	return NewTelegramWithSender(bot, chatID, maxRetries, time.Second)
}

// NewTelegramWithSender permite inyectar el sender (tests).
func NewTelegramWithSender(bot MessageSender, chatID string, maxRetries int, retryDelayBase time.Duration) (*Telegram, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("notify.NewTelegram: invalid chat id %q: %w", chatID, err)
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Telegram{
		bot:            bot,
		chatID:         id,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// OnQueueEvent avisa de items nuevos y de su disposición.
func (t *Telegram) OnQueueEvent(ctx context.Context, ev domain.QueueEvent) error {
	return t.send(ctx, formatQueueEvent(ev))
}

// SendAlerts envía todas las alertas en un único mensaje.
func (t *Telegram) SendAlerts(ctx context.Context, alerts []domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	return t.send(ctx, formatAlerts(alerts))
}

func (t *Telegram) send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		_, err := t.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		select {
		case <-time.After(t.retryDelayBase * time.Duration(i+1)):
		case <-ctx.Done():
			return fmt.Errorf("notify.Telegram: %w", ctx.Err())
		}
	}
	return fmt.Errorf("notify.Telegram: send failed after %d retries: %w", t.maxRetries, lastErr)
}

func formatQueueEvent(ev domain.QueueEvent) string {
	it := ev.Item
	icon := map[domain.QueueEventKind]string{
		domain.QueueItemAdded:    "🆕",
		domain.QueueItemApproved: "✅",
		domain.QueueItemRejected: "❌",
		domain.QueueItemReopened: "↩️",
	}[ev.Kind]

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s *Queue %s* \\#%d \\(%s, %s\\)\n", icon,
		escapeMarkdownV2(string(ev.Kind)), it.ID,
		escapeMarkdownV2(strings.ToUpper(string(it.Asset))),
		escapeMarkdownV2(string(ev.Source)))
	fmt.Fprintf(&sb, "A: %s\n", escapeMarkdownV2(it.MarketA))
	fmt.Fprintf(&sb, "B: %s\n", escapeMarkdownV2(it.MarketB))
	fmt.Fprintf(&sb, "min\\_cost: %s  profit: %s",
		escapeMarkdownV2(fmt.Sprintf("%.4f", it.MinCost)),
		escapeMarkdownV2(fmt.Sprintf("$%.2f", it.ProfitUSD)))
	return sb.String()
}

func formatAlerts(alerts []domain.Alert) string {
	var sb strings.Builder
	sb.WriteString("🚨 *polyarb alerts*\n")
	for _, a := range alerts {
		fmt.Fprintf(&sb, "• %s: %s\n", escapeMarkdownV2(a.Metric), escapeMarkdownV2(a.Message))
	}
	return sb.String()
}

var markdownV2Escaper = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
	"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
	"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
)

// escapeMarkdownV2 escapa los caracteres reservados de MarkdownV2.
func escapeMarkdownV2(text string) string {
	return markdownV2Escaper.Replace(text)
}
