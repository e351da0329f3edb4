// Package lifecycle holds the order state machine. It decides transitions
// only; persistence applies them with a compare-and-set on the prior status.
package lifecycle

import (
	"fmt"

	"greencart/internal/model"
)

// EventType identifies a payment event that can move an order.
type EventType string

const (
	// EventPaymentCompleted marks a checkout session paid.
	EventPaymentCompleted EventType = "payment.completed"
	// EventSessionExpired marks a checkout session abandoned, either reported
	// by the provider or detected by the expiry sweep.
	EventSessionExpired EventType = "session.expired"
	// EventPaymentFailed marks a payment attempt declined.
	EventPaymentFailed EventType = "payment.failed"
)

// State is the part of an order the state machine looks at.
type State struct {
	Status      model.OrderStatus
	PaymentType model.PaymentType
	IsPaid      bool
}

// Of extracts the state of an order.
func Of(o *model.Order) State {
	return State{Status: o.Status, PaymentType: o.PaymentType, IsPaid: o.IsPaid}
}

// Transition is the outcome of applying an event.
type Transition struct {
	From   State
	To     State
	Change bool
}

// Next returns the state an order moves to on event. Change is false when the
// event is a replay or otherwise has no effect, in which case To equals From.
// Events that contradict the current state return model.ErrInvalidTransition.
func Next(s State, event EventType) (Transition, error) {
	noop := Transition{From: s, To: s}

	if s.PaymentType != model.PaymentOnline {
		return noop, invalid(s, event)
	}

	switch event {
	case EventPaymentCompleted:
		switch {
		case s.Status == model.StatusPaymentConfirmed:
			return noop, nil
		case s.Status == model.StatusOrderPlaced,
			s.Status == model.StatusPaymentFailed,
			s.Status == model.StatusSessionExpired:
			// A collected payment always wins over an earlier decline or expiry.
			to := State{Status: model.StatusPaymentConfirmed, PaymentType: s.PaymentType, IsPaid: true}
			return Transition{From: s, To: to, Change: true}, nil
		}

	case EventSessionExpired:
		switch {
		case s.Status == model.StatusSessionExpired:
			return noop, nil
		case s.Status == model.StatusOrderPlaced && !s.IsPaid:
			to := State{Status: model.StatusSessionExpired, PaymentType: s.PaymentType}
			return Transition{From: s, To: to, Change: true}, nil
		}

	case EventPaymentFailed:
		switch {
		case s.Status == model.StatusPaymentFailed:
			return noop, nil
		case s.Status == model.StatusOrderPlaced && !s.IsPaid:
			to := State{Status: model.StatusPaymentFailed, PaymentType: s.PaymentType}
			return Transition{From: s, To: to, Change: true}, nil
		}

	default:
		return noop, fmt.Errorf("unknown order event %q: %w", event, model.ErrInvalidTransition)
	}

	return noop, invalid(s, event)
}

// Terminal reports whether no event can move the order any further. Failed
// and expired orders are not terminal since a late completion confirms them.
func Terminal(s State) bool {
	return s.PaymentType == model.PaymentCOD || s.Status == model.StatusPaymentConfirmed
}

func invalid(s State, event EventType) error {
	return fmt.Errorf("%s on %s order in status %q: %w", event, s.PaymentType, s.Status, model.ErrInvalidTransition)
}
