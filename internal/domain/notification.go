package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Trigger is the comparison used to decide when a price alert fires.
type Trigger string

const (
	// TriggerAbove fires when the observed price rises above the target.
	TriggerAbove Trigger = ">"
	// TriggerBelow fires when the observed price falls below the target.
	TriggerBelow Trigger = "<"
	// TriggerEqual fires when the observed price equals the target.
	TriggerEqual Trigger = "="
)

// ErrInvalidTrigger indicates a trigger direction outside the allowed set.
var ErrInvalidTrigger = errors.New("invalid trigger direction")

// ParseTrigger normalizes a user-supplied trigger direction. Word aliases
// are accepted case-insensitively; anything else is rejected.
func ParseTrigger(s string) (Trigger, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ">", "gt", "greater", "greater-than", "above":
		return TriggerAbove, nil
	case "<", "lt", "less", "less-than", "below":
		return TriggerBelow, nil
	case "=", "==", "eq", "equal", "equals":
		return TriggerEqual, nil
	default:
		return "", ErrInvalidTrigger
	}
}

// Valid reports whether the trigger is one of the three allowed comparisons.
func (t Trigger) Valid() bool {
	switch t {
	case TriggerAbove, TriggerBelow, TriggerEqual:
		return true
	default:
		return false
	}
}

// PriceAlert is a price-threshold notification rule owned by a single user.
type PriceAlert struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Symbol      string          `json:"symbol"`
	TargetPrice decimal.Decimal `json:"target_price"`
	Trigger     Trigger         `json:"trigger"`
	Comment     string          `json:"comment"`
	CreatedAt   time.Time       `json:"created_at"`
}
