package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"gold-market-alerts/internal/fund"
)

func thresholdEvent() Event {
	return Event{
		Kind:      KindThreshold,
		Class:     ClassDollar,
		Direction: "above",
		Current:   decimal.NewFromInt(101500),
		Reference: decimal.NewFromInt(100000),
	}
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("路径应包含 sendMessage, 实际 %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("解析请求体失败: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), thresholdEvent()); err != nil {
		t.Fatalf("Telegram Notify 应成功: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("chat_id 不正确: %#v", received)
	}
	if !strings.Contains(received["text"], "dollar") {
		t.Fatalf("text 应包含类别名称: %q", received["text"])
	}
}

func TestTelegramNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), thresholdEvent()); err == nil {
		t.Fatal("ok=false 应报错")
	}
}

func TestRenderMessageWholeUnits(t *testing.T) {
	event := thresholdEvent()
	v := decimal.RequireFromString("101500.73")
	event.Current = v

	text := RenderMessage(event)
	if !strings.Contains(text, "101501") {
		t.Fatalf("价格应取整显示: %q", text)
	}
	if strings.Contains(text, "101500.73") {
		t.Fatalf("不应出现小数价格: %q", text)
	}
}

func TestRenderMessageScreening(t *testing.T) {
	event := Event{
		Kind: KindScreening,
		Funds: []fund.Record{
			{
				Symbol:           "TALA1",
				TradeValue:       decimal.RequireFromString("12.5"),
				InflowToValuePct: decimal.NewFromInt(63),
				SaraneKharid:     decimal.RequireFromString("9.1"),
				SaraneDiff:       decimal.RequireFromString("4.2"),
				BubblePct:        decimal.RequireFromString("2.35"),
			},
		},
	}

	text := RenderMessage(event)
	for _, want := range []string{"TALA1", "12.5", "63", "4.2", "2.35"} {
		if !strings.Contains(text, want) {
			t.Fatalf("screening 文本缺少 %q: %q", want, text)
		}
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}
