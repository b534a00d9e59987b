package transfer

import (
	"slices"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/privcap/internal/apperr"
)

type Action string

const (
	ActionSubmit   Action = "submit"
	ActionApprove  Action = "approve"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
	ActionReject   Action = "reject"
)

// Actor is the caller driving a transition.
type Actor struct {
	ID    uuid.UUID
	Staff bool
}

// Rule describes one transition: the statuses it may start from, where it leads,
// and who may perform it. Owner rules are restricted to the sender, staff rules to reviewers.
type Rule struct {
	From  []Status
	To    Status
	Staff bool
}

var rules = map[Action]Rule{
	ActionSubmit:   {From: []Status{StatusDraft}, To: StatusPending},
	ActionApprove:  {From: []Status{StatusPending}, To: StatusApproved, Staff: true},
	ActionComplete: {From: []Status{StatusApproved}, To: StatusCompleted, Staff: true},
	ActionCancel:   {From: []Status{StatusDraft, StatusPending}, To: StatusCancelled},
	ActionReject:   {From: []Status{StatusPending, StatusApproved}, To: StatusRejected, Staff: true},
}

// RuleFor returns the transition rule of action.
func RuleFor(action Action) (Rule, bool) {
	r, ok := rules[action]
	return r, ok
}

// Guard checks that actor may perform action on t and returns the resulting status.
// The actor is checked before the current status.
func Guard(t *Transfer, action Action, actor Actor) (Status, error) {
	r, ok := rules[action]
	if !ok {
		return "", apperr.Field("action", "unknown transfer action "+string(action))
	}

	if r.Staff && !actor.Staff {
		return "", apperr.Authorization("only reviewers may %s transfers", action)
	}

	if !r.Staff && actor.ID != t.FromUserID {
		return "", apperr.Authorization("you can only %s your own transfers", action)
	}

	if !slices.Contains(r.From, t.Status) {
		return "", apperr.State("cannot %s a transfer in status %s", action, t.Status)
	}

	return r.To, nil
}
