package checker

import (
	"fmt"
	"time"

	"github.com/pricewatch/tracker-api/internal/model"
)

// MaxFailures is the consecutive-failure count at which scheduled checks
// stop fetching; an alert is auto-deactivated at twice this value.
const MaxFailures = 5

// State is derived from the alert's fields, not stored separately.
type State string

const (
	StateActiveUnnotified State = "active_unnotified"
	StateActiveNotified   State = "active_notified"
	StateFailing          State = "failing"
	StateDeactivated      State = "deactivated"
)

// StateOf derives the current state of an alert.
func StateOf(a *model.Alert, maxFailures int) State {
	switch {
	case !a.IsActive:
		return StateDeactivated
	case a.FailureCount >= maxFailures:
		return StateFailing
	case a.Notified:
		return StateActiveNotified
	default:
		return StateActiveUnnotified
	}
}

// FetchResult is the outcome of one fetch+extract pass for an alert.
type FetchResult struct {
	Price float64
	Found bool
	Err   error
}

// GateResult reports the failure-gate decision taken before any network
// call is made.
type GateResult struct {
	Skip        bool
	Deactivated bool
}

// Gate applies the failure gate: at maxFailures the check is skipped, at
// twice maxFailures the alert is deactivated. The returned alert is a
// mutated copy; the input is not modified.
func Gate(a model.Alert, maxFailures int, now time.Time) (model.Alert, GateResult) {
	if a.FailureCount < maxFailures {
		return a, GateResult{}
	}

	if a.FailureCount >= 2*maxFailures && a.IsActive {
		a.IsActive = false
		msg := deactivationMessage(a.FailureCount)
		a.LastError = &msg
		a.UpdatedAt = now
		return a, GateResult{Skip: true, Deactivated: true}
	}

	return a, GateResult{Skip: true}
}

// Apply folds one fetch result into the alert and decides whether a
// notification is warranted. It is pure: the caller performs the actual
// delivery and commits notification state with MarkNotified only after the
// channel confirms success.
func Apply(a model.Alert, res FetchResult, now time.Time) (model.Alert, bool) {
	if res.Err != nil || !res.Found {
		a.FailureCount++
		msg := failureMessage(res)
		a.LastError = &msg
		a.UpdatedAt = now
		return a, false
	}

	a.FailureCount = 0
	a.LastError = nil

	if a.CurrentPrice != nil && *a.CurrentPrice != res.Price {
		prev := *a.CurrentPrice
		a.PreviousPrice = &prev
	}
	price := res.Price
	a.CurrentPrice = &price
	a.LastCheckedAt = &now
	a.UpdatedAt = now

	if price > a.TargetPrice {
		// Price rose back above target: the episode is over, so a future
		// drop is eligible for a fresh notification.
		if a.Notified {
			a.Notified = false
			a.NotifiedAt = nil
			a.LastNotifiedPrice = nil
		}
		return a, false
	}

	// Notify once per distinct observed price at or below target: a flat
	// price must not re-trigger, any further change must. Alerts opted into
	// repeat mode notify on every check below target.
	shouldNotify := a.RepeatAlerts ||
		!a.Notified || a.LastNotifiedPrice == nil || *a.LastNotifiedPrice != price
	return a, shouldNotify
}

// MarkNotified commits notification state after confirmed delivery.
func MarkNotified(a model.Alert, price float64, now time.Time) model.Alert {
	a.Notified = true
	a.NotifiedAt = &now
	a.LastNotifiedPrice = &price
	a.UpdatedAt = now
	return a
}

func failureMessage(res FetchResult) string {
	if res.Err != nil {
		return res.Err.Error()
	}
	return "price not found - product may be unavailable"
}

func deactivationMessage(failures int) string {
	return fmt.Sprintf("auto-deactivated after %d consecutive failures", failures)
}
