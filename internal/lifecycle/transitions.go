// Package lifecycle holds the pure rules of the offer and delivery lifecycles:
// transition tables, party resolution, commission arithmetic and the saga
// runner used by multi-step mutations.
package lifecycle

import (
	"fmt"

	"jobmarket/internal/domain"
)

// Actions that move an offer or a delivery request.
const (
	ActionApprove = "APPROVE"
	ActionDecline = "DECLINE"
	ActionPay     = "PAY"
)

type transition struct {
	from   string
	action string
}

var offerTransitions = map[transition]string{
	{domain.StatusWaiting, ActionApprove}: domain.StatusApprove,
	{domain.StatusWaiting, ActionDecline}: domain.StatusDecline,
	{domain.StatusWaiting, ActionPay}:     domain.StatusPaid,
	{domain.StatusApprove, ActionPay}:     domain.StatusPaid,
}

var requestTransitions = map[transition]string{
	{domain.StatusWaiting, ActionApprove}: domain.StatusApprove,
	{domain.StatusWaiting, ActionDecline}: domain.StatusDecline,
}

// NextOfferStatus returns the status an offer in state current moves to under action.
// Undefined pairs are a conflict.
func NextOfferStatus(current, action string) (string, error) {
	return next(offerTransitions, "offer", current, action)
}

// NextRequestStatus is NextOfferStatus for delivery and time-extension requests.
func NextRequestStatus(current, action string) (string, error) {
	return next(requestTransitions, "request", current, action)
}

// OfferSourcesFor lists the states from which action is allowed. Used as the
// guard of compare-and-swap updates.
func OfferSourcesFor(action string) []string {
	return sourcesFor(offerTransitions, action)
}

func RequestSourcesFor(action string) []string {
	return sourcesFor(requestTransitions, action)
}

// IsTerminalOffer reports whether no action can move an offer out of status.
func IsTerminalOffer(status string) bool {
	for t := range offerTransitions {
		if t.from == status {
			return false
		}
	}
	return true
}

// ValidResponse reports whether action is one a party may respond with.
func ValidResponse(action string) bool {
	return action == ActionApprove || action == ActionDecline
}

func next(table map[transition]string, entity, current, action string) (string, error) {
	to, ok := table[transition{current, action}]
	if !ok {
		return "", domain.Conflict(fmt.Sprintf("cannot %s %s in status %s", actionVerb(action), entity, current))
	}
	return to, nil
}

func sourcesFor(table map[transition]string, action string) []string {
	var out []string
	for t := range table {
		if t.action == action {
			out = append(out, t.from)
		}
	}
	return out
}

func actionVerb(action string) string {
	switch action {
	case ActionApprove:
		return "approve"
	case ActionDecline:
		return "decline"
	case ActionPay:
		return "pay for"
	}
	return action
}
