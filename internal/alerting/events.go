package alerting

import (
	"github.com/shopspring/decimal"

	"gold-market-alerts/internal/fund"
)

// Kind discriminates the alert payload variants.
type Kind string

const (
	KindThreshold Kind = "threshold"
	KindSwing     Kind = "swing"
	KindSurge     Kind = "surge"
	KindScreening Kind = "screening"
)

// Class is a tracked hysteresis class.
type Class string

const (
	ClassDollar Class = "dollar"
	ClassShams  Class = "shams"
	ClassGold   Class = "gold"
)

// Classes in evaluation order.
var Classes = []Class{ClassDollar, ClassShams, ClassGold}

// State is the persisted hysteresis state of one class.
type State string

const (
	StateNormal State = "normal"
	StateAbove  State = "above"
	StateBelow  State = "below"
)

// StatusMap is the externally persisted class → state mapping.
type StatusMap map[Class]State

// NewStatusMap returns the neutral map: every class normal. It is the
// substitute whenever the persisted map cannot be read.
func NewStatusMap() StatusMap {
	m := make(StatusMap, len(Classes))
	for _, class := range Classes {
		m[class] = StateNormal
	}
	return m
}

// Clone copies the map so in-memory mutation never aliases the read state.
func (m StatusMap) Clone() StatusMap {
	out := make(StatusMap, len(m))
	for class, state := range m {
		out[class] = state
	}
	return out
}

// Event is one typed alert payload. Which fields are meaningful depends on
// Kind; delivery transport only formats, never recomputes.
type Event struct {
	Kind      Kind
	Class     Class
	Direction string
	// Current is the observed value; Reference the crossed threshold
	// (threshold events) or the previous cycle's value (swing/surge).
	Current   decimal.Decimal
	Reference decimal.Decimal
	// ChangePct carries the signed swing percentage.
	ChangePct decimal.Decimal
	// TotalInflow accompanies surge events.
	TotalInflow decimal.Decimal
	// Funds carries the qualifying list of a screening event, descending by
	// trade value.
	Funds []fund.Record
}
