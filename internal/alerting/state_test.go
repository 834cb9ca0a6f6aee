package alerting

import (
	"testing"

	"github.com/shopspring/decimal"

	"gold-market-alerts/internal/fund"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func dollarEvaluator() Evaluator {
	return Evaluator{
		Bands: map[Class]Band{
			ClassDollar: {High: d("100000"), Low: d("90000")},
		},
		SwingThresholdPct: d("0.3"),
		SurgeDelta:        d("10"),
	}
}

func currentDollar(v string) CurrentValues {
	return CurrentValues{Dollar: d(v), Gold: d("4300")}
}

func thresholdEvents(events []Event) []Event {
	out := make([]Event, 0)
	for _, e := range events {
		if e.Kind == KindThreshold {
			out = append(out, e)
		}
	}
	return out
}

func TestHysteresisSequence(t *testing.T) {
	e := dollarEvaluator()

	// Cycle 1: crosses above HIGH, exactly one alert.
	res := e.Evaluate(NewStatusMap(), PreviousScalars{}, currentDollar("101000"), fund.Aggregates{}, nil)
	events := thresholdEvents(res.Events)
	if len(events) != 1 || events[0].Direction != "above" {
		t.Fatalf("首次越过 HIGH 应产生且仅产生一条告警: %+v", events)
	}
	if res.Status[ClassDollar] != StateAbove || !res.StatusChanged {
		t.Fatalf("state should flip to above: %+v", res.Status)
	}

	// Cycle 2: sustained above, no repeat.
	res = e.Evaluate(res.Status, PreviousScalars{}, currentDollar("102000"), fund.Aggregates{}, nil)
	if len(thresholdEvents(res.Events)) != 0 {
		t.Fatal("持续高于 HIGH 不应重复告警")
	}
	if res.StatusChanged {
		t.Fatal("sustained state must not mark the map changed")
	}

	// Cycle 3: back inside the band — silent recovery.
	res = e.Evaluate(res.Status, PreviousScalars{}, currentDollar("95000"), fund.Aggregates{}, nil)
	if len(thresholdEvents(res.Events)) != 0 {
		t.Fatal("回落到正常区间应静默复位")
	}
	if res.Status[ClassDollar] != StateNormal || !res.StatusChanged {
		t.Fatalf("state should reset to normal: %+v", res.Status)
	}
}

func TestHysteresisCrossBelow(t *testing.T) {
	e := dollarEvaluator()

	res := e.Evaluate(NewStatusMap(), PreviousScalars{}, currentDollar("89000"), fund.Aggregates{}, nil)
	events := thresholdEvents(res.Events)
	if len(events) != 1 || events[0].Direction != "below" {
		t.Fatalf("跌破 LOW 应告警: %+v", events)
	}
	if res.Status[ClassDollar] != StateBelow {
		t.Fatalf("state should be below: %v", res.Status[ClassDollar])
	}

	// Exactly LOW is inside the band: recovery, no alert.
	res = e.Evaluate(res.Status, PreviousScalars{}, currentDollar("90000"), fund.Aggregates{}, nil)
	if len(thresholdEvents(res.Events)) != 0 || res.Status[ClassDollar] != StateNormal {
		t.Fatalf("v == LOW 属于正常区间: %+v", res)
	}
}

func TestHysteresisBoundaryHigh(t *testing.T) {
	e := dollarEvaluator()
	res := e.Evaluate(NewStatusMap(), PreviousScalars{}, currentDollar("100000"), fund.Aggregates{}, nil)
	if len(thresholdEvents(res.Events)) != 1 {
		t.Fatal("v == HIGH 应触发 (≥)")
	}
}

func TestUntrackedClassIgnored(t *testing.T) {
	e := dollarEvaluator()
	// Gold has no band configured: even an extreme value stays silent.
	current := currentDollar("95000")
	current.Gold = d("99999")
	res := e.Evaluate(NewStatusMap(), PreviousScalars{}, current, fund.Aggregates{}, nil)
	if len(res.Events) != 0 || res.StatusChanged {
		t.Fatalf("未配置阈值的类别不应参与迟滞判断: %+v", res)
	}
}

func TestMissingShamsSkipped(t *testing.T) {
	e := Evaluator{Bands: map[Class]Band{
		ClassShams: {High: d("70000000"), Low: d("60000000")},
	}}

	res := e.Evaluate(NewStatusMap(), PreviousScalars{}, CurrentValues{Dollar: d("1"), Gold: d("1")}, fund.Aggregates{}, nil)
	if len(res.Events) != 0 || res.StatusChanged {
		t.Fatalf("缺失的 shams 价格应跳过, 状态保持不变: %+v", res)
	}
}

func TestPreviousMapNotMutated(t *testing.T) {
	e := dollarEvaluator()
	prev := NewStatusMap()
	e.Evaluate(prev, PreviousScalars{}, currentDollar("101000"), fund.Aggregates{}, nil)
	if prev[ClassDollar] != StateNormal {
		t.Fatal("the read status map must never be mutated in place")
	}
}

func TestSwingThreshold(t *testing.T) {
	e := dollarEvaluator()

	// 100000 -> 100300 is exactly +0.3%: fires.
	res := e.Evaluate(NewStatusMap(), PreviousScalars{Dollar: dp("100000")}, currentDollar("100300"), fund.Aggregates{}, nil)
	var swing *Event
	for i := range res.Events {
		if res.Events[i].Kind == KindSwing {
			swing = &res.Events[i]
		}
	}
	if swing == nil {
		t.Fatal("0.3% 的快速波动应触发 swing 告警")
	}
	if swing.Direction != "up" || !swing.ChangePct.Equal(d("0.3")) {
		t.Fatalf("swing payload mismatch: %+v", swing)
	}

	// Below threshold: silent.
	res = e.Evaluate(NewStatusMap(), PreviousScalars{Dollar: dp("100000")}, currentDollar("100299"), fund.Aggregates{}, nil)
	for _, event := range res.Events {
		if event.Kind == KindSwing {
			t.Fatal("低于阈值不应触发 swing")
		}
	}

	// No previous dollar: rule disabled.
	res = e.Evaluate(NewStatusMap(), PreviousScalars{}, currentDollar("150000"), fund.Aggregates{}, nil)
	for _, event := range res.Events {
		if event.Kind == KindSwing {
			t.Fatal("无上一周期数据时 swing 规则应静默")
		}
	}
}

func TestSwingFiresEveryCycle(t *testing.T) {
	e := dollarEvaluator()
	scalars := PreviousScalars{Dollar: dp("100000")}

	// Hysteresis already above; swing has no de-dup memory and still fires.
	status := NewStatusMap()
	status[ClassDollar] = StateAbove
	res := e.Evaluate(status, scalars, currentDollar("101000"), fund.Aggregates{}, nil)

	found := false
	for _, event := range res.Events {
		if event.Kind == KindSwing {
			found = true
		}
	}
	if !found {
		t.Fatal("swing 告警不受迟滞状态抑制")
	}
}

func TestSurgeThreshold(t *testing.T) {
	e := dollarEvaluator()
	scalars := PreviousScalars{SaraneDiff: dp("5")}

	// Delta exactly 10: fires.
	agg := fund.Aggregates{WeightedSaraneDiff: d("15"), TotalPolHagigi: d("42")}
	res := e.Evaluate(NewStatusMap(), scalars, currentDollar("95000"), agg, nil)
	var surge *Event
	for i := range res.Events {
		if res.Events[i].Kind == KindSurge {
			surge = &res.Events[i]
		}
	}
	if surge == nil {
		t.Fatal("差额变动恰为 10 应触发 surge (≥)")
	}
	if surge.Direction != "inflow" || !surge.TotalInflow.Equal(d("42")) {
		t.Fatalf("surge payload mismatch: %+v", surge)
	}

	// Delta 9.99: silent.
	agg = fund.Aggregates{WeightedSaraneDiff: d("14.99")}
	res = e.Evaluate(NewStatusMap(), scalars, currentDollar("95000"), agg, nil)
	for _, event := range res.Events {
		if event.Kind == KindSurge {
			t.Fatal("9.99 的变动不应触发 surge")
		}
	}

	// Negative delta: outflow direction.
	agg = fund.Aggregates{WeightedSaraneDiff: d("-20")}
	res = e.Evaluate(NewStatusMap(), scalars, currentDollar("95000"), agg, nil)
	for _, event := range res.Events {
		if event.Kind == KindSurge && event.Direction != "outflow" {
			t.Fatalf("负向变动方向应为 outflow: %+v", event)
		}
	}
}

func TestScreeningEvent(t *testing.T) {
	e := dollarEvaluator()
	screened := []fund.Record{
		{Symbol: "TALA1", TradeValue: d("9")},
		{Symbol: "TALA2", TradeValue: d("3")},
	}

	res := e.Evaluate(NewStatusMap(), PreviousScalars{}, currentDollar("95000"), fund.Aggregates{}, screened)
	var event *Event
	for i := range res.Events {
		if res.Events[i].Kind == KindScreening {
			event = &res.Events[i]
		}
	}
	if event == nil {
		t.Fatal("非空筛选结果应产生 screening 告警")
	}
	if len(event.Funds) != 2 || event.Funds[0].Symbol != "TALA1" {
		t.Fatalf("screening payload mismatch: %+v", event.Funds)
	}

	res = e.Evaluate(NewStatusMap(), PreviousScalars{}, currentDollar("95000"), fund.Aggregates{}, nil)
	for _, ev := range res.Events {
		if ev.Kind == KindScreening {
			t.Fatal("空筛选结果不应告警")
		}
	}
}
