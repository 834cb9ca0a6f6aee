package alerting

import (
	"github.com/shopspring/decimal"

	"gold-market-alerts/internal/fund"
)

// Band is the hysteresis band of one class. A band with High <= 0 marks the
// class untracked: no transitions, state left untouched.
type Band struct {
	High decimal.Decimal
	Low  decimal.Decimal
}

// CurrentValues are the per-class observations of this cycle. Shams comes
// from the instrument table and may be absent for the cycle.
type CurrentValues struct {
	Dollar decimal.Decimal
	Shams  *decimal.Decimal
	Gold   decimal.Decimal
}

func (v CurrentValues) forClass(class Class) *decimal.Decimal {
	switch class {
	case ClassDollar:
		return &v.Dollar
	case ClassShams:
		return v.Shams
	case ClassGold:
		return &v.Gold
	}
	return nil
}

// PreviousScalars are the prior cycle's values, read from the newest history
// row. Nil fields mean no prior cycle (or an unreadable one).
type PreviousScalars struct {
	Dollar     *decimal.Decimal
	Shams      *decimal.Decimal
	Gold       *decimal.Decimal
	SaraneDiff *decimal.Decimal
}

// Evaluator applies the alert rules of one cycle.
type Evaluator struct {
	Bands             map[Class]Band
	SwingThresholdPct decimal.Decimal
	SurgeDelta        decimal.Decimal
}

// Result is the outcome of one evaluation.
type Result struct {
	Events []Event
	Status StatusMap
	// StatusChanged reports whether any class's hysteresis state moved; the
	// persisted map is written back only in that case.
	StatusChanged bool
}

// Evaluate runs the hysteresis transitions and the unconditional rules
// against the current cycle. prev is the persisted state as read (the caller
// substitutes the neutral map on read failure); it is never mutated.
func (e Evaluator) Evaluate(prev StatusMap, scalars PreviousScalars, current CurrentValues, agg fund.Aggregates, screened []fund.Record) Result {
	res := Result{Status: prev.Clone()}

	for _, class := range Classes {
		value := current.forClass(class)
		if value == nil {
			continue
		}
		band, ok := e.Bands[class]
		if !ok || !band.High.IsPositive() {
			continue
		}

		state := res.Status[class]
		switch {
		case state == StateNormal && value.GreaterThanOrEqual(band.High):
			res.Events = append(res.Events, Event{
				Kind:      KindThreshold,
				Class:     class,
				Direction: "above",
				Current:   *value,
				Reference: band.High,
			})
			res.Status[class] = StateAbove
			res.StatusChanged = true
		case state == StateNormal && value.LessThan(band.Low):
			res.Events = append(res.Events, Event{
				Kind:      KindThreshold,
				Class:     class,
				Direction: "below",
				Current:   *value,
				Reference: band.Low,
			})
			res.Status[class] = StateBelow
			res.StatusChanged = true
		case state != StateNormal && value.GreaterThanOrEqual(band.Low) && value.LessThan(band.High):
			// Back inside the band: silent recovery.
			res.Status[class] = StateNormal
			res.StatusChanged = true
		}
	}

	if event, ok := e.swingEvent(scalars, current); ok {
		res.Events = append(res.Events, event)
	}
	if event, ok := e.surgeEvent(scalars, agg); ok {
		res.Events = append(res.Events, event)
	}
	if len(screened) > 0 {
		res.Events = append(res.Events, Event{
			Kind:  KindScreening,
			Funds: screened,
		})
	}

	return res
}

// swingEvent fires on every cycle whose dollar move versus the previous
// cycle reaches the threshold. No de-dup memory: a sustained fast move keeps
// alerting.
func (e Evaluator) swingEvent(scalars PreviousScalars, current CurrentValues) (Event, bool) {
	if scalars.Dollar == nil || scalars.Dollar.IsZero() || !e.SwingThresholdPct.IsPositive() {
		return Event{}, false
	}

	changePct := current.Dollar.Sub(*scalars.Dollar).Div(*scalars.Dollar).Mul(hundred)
	if changePct.Abs().LessThan(e.SwingThresholdPct) {
		return Event{}, false
	}

	direction := "up"
	if changePct.IsNegative() {
		direction = "down"
	}
	return Event{
		Kind:      KindSwing,
		Class:     ClassDollar,
		Direction: direction,
		Current:   current.Dollar,
		Reference: *scalars.Dollar,
		ChangePct: changePct,
	}, true
}

// surgeEvent fires when the weighted per-capita differential jumped by at
// least the configured delta since the previous cycle.
func (e Evaluator) surgeEvent(scalars PreviousScalars, agg fund.Aggregates) (Event, bool) {
	if scalars.SaraneDiff == nil || !e.SurgeDelta.IsPositive() {
		return Event{}, false
	}

	delta := agg.WeightedSaraneDiff.Sub(*scalars.SaraneDiff)
	if delta.Abs().LessThan(e.SurgeDelta) {
		return Event{}, false
	}

	direction := "inflow"
	if delta.IsNegative() {
		direction = "outflow"
	}
	return Event{
		Kind:        KindSurge,
		Direction:   direction,
		Current:     agg.WeightedSaraneDiff,
		Reference:   *scalars.SaraneDiff,
		TotalInflow: agg.TotalPolHagigi,
	}, true
}

var hundred = decimal.NewFromInt(100)
