package models

import "errors"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusCancelled OrderStatus = "cancelled"
)

// validTransitions defines the allowed state machine transitions.
// confirmed and cancelled are terminal.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPending: {StatusConfirmed, StatusCancelled},
}

var statusLabels = map[OrderStatus]string{
	StatusPending:   "En attente",
	StatusConfirmed: "Confirmée",
	StatusCancelled: "Annulée",
}

var ErrInvalidTransition = errors.New("invalid status transition")

func (s OrderStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

func (s OrderStatus) Label() string {
	return statusLabels[s]
}

// CanTransitionTo reports whether a transition from s to next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
