package domain

import (
	"fmt"
	"strings"
)

// Status is the normalized lifecycle state of a payment or PIX charge.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
)

// Statuses lists every known status in dispatch order.
var Statuses = []Status{
	StatusPending,
	StatusApproved,
	StatusRejected,
	StatusCancelled,
	StatusRefunded,
}

// processorAliases maps processor-specific status strings onto the five
// normalized states.
var processorAliases = map[string]Status{
	"pending":      StatusPending,
	"in_process":   StatusPending,
	"authorized":   StatusPending,
	"in_mediation": StatusPending,
	"approved":     StatusApproved,
	"rejected":     StatusRejected,
	"cancelled":    StatusCancelled,
	"canceled":     StatusCancelled,
	"expired":      StatusCancelled,
	"refunded":     StatusRefunded,
	"charged_back": StatusRefunded,
}

// ParseStatus normalizes a processor status string. Unknown values return
// ErrUnknownStatus so callers can log and drop them.
func ParseStatus(s string) (Status, error) {
	st, ok := processorAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// Valid reports whether s is one of the five normalized states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// IsTerminal is true for every state except pending. Approved is terminal
// for checkout purposes but may still move to refunded, see MayTransition.
func (s Status) IsTerminal() bool {
	return s.Valid() && s != StatusPending
}

// MayTransition reports whether a record in state s can still change.
func (s Status) MayTransition() bool {
	return s == StatusPending || s == StatusApproved
}

// CanTransition reports whether from -> to is a legal lifecycle move.
// Re-observing the same state is always allowed (webhook redelivery).
func CanTransition(from, to Status) bool {
	if from == to {
		return from.Valid()
	}
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected || to == StatusCancelled
	case StatusApproved:
		return to == StatusRefunded
	default:
		return false
	}
}

// PriorStatuses lists every stored state that may move to to.
func PriorStatuses(to Status) []Status {
	var out []Status
	for _, from := range Statuses {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

func (s Status) String() string { return string(s) }
