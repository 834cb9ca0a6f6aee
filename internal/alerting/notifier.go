package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Notifier 定义告警输送接口。
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier 构造 Telegram 告警器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify 调用 sendMessage API 推送文本。
func (n *TelegramNotifier) Notify(ctx context.Context, event Event) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    RenderMessage(event),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}

	n.logger.Info().
		Str("kind", string(event.Kind)).
		Str("class", string(event.Class)).
		Str("direction", event.Direction).
		Msg("告警已发送 (Telegram)")
	return nil
}

// RenderMessage formats an event for delivery. Prices print in whole units;
// percentages keep two decimals.
func RenderMessage(event Event) string {
	builder := strings.Builder{}
	switch event.Kind {
	case KindThreshold:
		builder.WriteString("[Threshold Alert]\n")
		builder.WriteString(fmt.Sprintf("%s crossed %s %s\n", event.Class, event.Direction, whole(event.Reference)))
		builder.WriteString(fmt.Sprintf("Current: %s\n", whole(event.Current)))
	case KindSwing:
		builder.WriteString("[Fast Move]\n")
		builder.WriteString(fmt.Sprintf("%s moved %s%% (%s)\n", event.Class, event.ChangePct.StringFixed(2), event.Direction))
		builder.WriteString(fmt.Sprintf("Previous: %s  Current: %s\n", whole(event.Reference), whole(event.Current)))
	case KindSurge:
		builder.WriteString("[Sarane Surge]\n")
		builder.WriteString(fmt.Sprintf("Weighted differential %s -> %s (%s)\n", event.Reference.StringFixed(2), event.Current.StringFixed(2), event.Direction))
		builder.WriteString(fmt.Sprintf("Total pol hagigi: %s B\n", event.TotalInflow.StringFixed(2)))
	case KindScreening:
		builder.WriteString("[Active Funds]\n")
		for _, rec := range event.Funds {
			builder.WriteString(fmt.Sprintf(
				"%s value %s B | inflow %s%% | sarane %s / diff %s | bubble %s%%\n",
				rec.Symbol,
				rec.TradeValue.StringFixed(1),
				rec.InflowToValuePct.StringFixed(0),
				rec.SaraneKharid.StringFixed(1),
				rec.SaraneDiff.StringFixed(1),
				rec.BubblePct.StringFixed(2),
			))
		}
	}
	return builder.String()
}

func whole(v decimal.Decimal) string {
	return v.Round(0).String()
}

var _ Notifier = (*TelegramNotifier)(nil)
