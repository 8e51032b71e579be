package loan

import (
	"fmt"

	"github.com/credflow/credflow/internal/domain/identity"
)

// Reason codes carried by TransitionError for logging. Callers see one error
// kind; the code distinguishes an unknown edge from an unauthorized role.
const (
	ReasonEdgeNotAllowed    = "edge_not_allowed"
	ReasonRoleNotAuthorized = "role_not_authorized"
)

// TransitionError reports a rejected status transition.
type TransitionError struct {
	From   Status
	To     Status
	Role   identity.Role
	Reason string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transition %s -> %s denied for role %s (%s)", e.From, e.To, e.Role, e.Reason)
}

type edge struct {
	from Status
	to   Status
}

// transitionTable is the single source of truth for which role may drive
// which edge. Any (from, to) pair absent from this map is denied for every
// role; widening it requires new evidence from the business, not a code
// change on a hunch.
var transitionTable = map[edge][]identity.Role{
	{StatusDraft, StatusUnderKAMReview}:                   {identity.RoleClient},
	{StatusQueryWithClient, StatusUnderKAMReview}:         {identity.RoleClient},
	{StatusDraft, StatusWithdrawn}:                        {identity.RoleClient},
	{StatusUnderKAMReview, StatusWithdrawn}:               {identity.RoleClient},
	{StatusQueryWithClient, StatusWithdrawn}:              {identity.RoleClient},
	{StatusUnderKAMReview, StatusPendingCreditReview}:     {identity.RoleKAM},
	{StatusUnderKAMReview, StatusQueryWithClient}:         {identity.RoleKAM},
	{StatusPendingCreditReview, StatusCreditQueryWithKAM}: {identity.RoleCreditTeam},
	{StatusPendingCreditReview, StatusInNegotiation}:      {identity.RoleCreditTeam},
	{StatusCreditQueryWithKAM, StatusInNegotiation}:       {identity.RoleCreditTeam},
	{StatusPendingCreditReview, StatusSentToNBFC}:         {identity.RoleCreditTeam},
	{StatusCreditQueryWithKAM, StatusSentToNBFC}:          {identity.RoleCreditTeam},
	{StatusInNegotiation, StatusSentToNBFC}:               {identity.RoleCreditTeam},
	{StatusSentToNBFC, StatusApproved}:                    {identity.RoleCreditTeam},
	{StatusSentToNBFC, StatusRejected}:                    {identity.RoleCreditTeam},
	{StatusApproved, StatusDisbursed}:                     {identity.RoleCreditTeam},
	{StatusDisbursed, StatusClosed}:                       {identity.RoleCreditTeam},
}

// ValidateTransition decides whether the given role may move an application
// from current to target. It is pure and touches no storage.
func ValidateTransition(current, target Status, role identity.Role) error {
	roles, ok := transitionTable[edge{current, target}]
	if !ok {
		return &TransitionError{From: current, To: target, Role: role, Reason: ReasonEdgeNotAllowed}
	}
	for _, r := range roles {
		if r == role {
			return nil
		}
	}
	return &TransitionError{From: current, To: target, Role: role, Reason: ReasonRoleNotAuthorized}
}

// AllowedTargets returns the targets the role may drive the current status
// to. Used by the API to render available actions.
func AllowedTargets(current Status, role identity.Role) []Status {
	var out []Status
	for e, roles := range transitionTable {
		if e.from != current {
			continue
		}
		for _, r := range roles {
			if r == role {
				out = append(out, e.to)
				break
			}
		}
	}
	return out
}
