package loan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/credflow/credflow/internal/domain/identity"
)

var allStatuses = []Status{
	StatusDraft, StatusUnderKAMReview, StatusQueryWithClient,
	StatusPendingCreditReview, StatusCreditQueryWithKAM, StatusInNegotiation,
	StatusSentToNBFC, StatusApproved, StatusRejected, StatusDisbursed,
	StatusWithdrawn, StatusClosed,
}

var allRoles = []identity.Role{
	identity.RoleClient, identity.RoleKAM, identity.RoleCreditTeam,
	identity.RoleNBFC, identity.RoleAdmin,
}

func TestValidateTransitionTableSweep(t *testing.T) {
	type row struct {
		from Status
		to   Status
		role identity.Role
	}
	allowedRows := []row{
		{StatusDraft, StatusUnderKAMReview, identity.RoleClient},
		{StatusQueryWithClient, StatusUnderKAMReview, identity.RoleClient},
		{StatusDraft, StatusWithdrawn, identity.RoleClient},
		{StatusUnderKAMReview, StatusWithdrawn, identity.RoleClient},
		{StatusQueryWithClient, StatusWithdrawn, identity.RoleClient},
		{StatusUnderKAMReview, StatusPendingCreditReview, identity.RoleKAM},
		{StatusUnderKAMReview, StatusQueryWithClient, identity.RoleKAM},
		{StatusPendingCreditReview, StatusCreditQueryWithKAM, identity.RoleCreditTeam},
		{StatusPendingCreditReview, StatusInNegotiation, identity.RoleCreditTeam},
		{StatusCreditQueryWithKAM, StatusInNegotiation, identity.RoleCreditTeam},
		{StatusPendingCreditReview, StatusSentToNBFC, identity.RoleCreditTeam},
		{StatusCreditQueryWithKAM, StatusSentToNBFC, identity.RoleCreditTeam},
		{StatusInNegotiation, StatusSentToNBFC, identity.RoleCreditTeam},
		{StatusSentToNBFC, StatusApproved, identity.RoleCreditTeam},
		{StatusSentToNBFC, StatusRejected, identity.RoleCreditTeam},
		{StatusApproved, StatusDisbursed, identity.RoleCreditTeam},
		{StatusDisbursed, StatusClosed, identity.RoleCreditTeam},
	}

	allowed := make(map[row]bool, len(allowedRows))
	for _, r := range allowedRows {
		allowed[r] = true
	}

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			for _, role := range allRoles {
				err := ValidateTransition(from, to, role)
				if allowed[row{from, to, role}] {
					assert.NoError(t, err, "%s -> %s as %s should be allowed", from, to, role)
				} else {
					assert.Error(t, err, "%s -> %s as %s should be denied", from, to, role)
				}
			}
		}
	}
}

func TestValidateTransitionReasonCodes(t *testing.T) {
	var te *TransitionError

	// Edge absent from the table.
	err := ValidateTransition(StatusDraft, StatusApproved, identity.RoleCreditTeam)
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ReasonEdgeNotAllowed, te.Reason)

	// Edge present, wrong role.
	err = ValidateTransition(StatusApproved, StatusDisbursed, identity.RoleKAM)
	require.True(t, errors.As(err, &te))
	assert.Equal(t, ReasonRoleNotAuthorized, te.Reason)
	assert.Equal(t, StatusApproved, te.From)
	assert.Equal(t, StatusDisbursed, te.To)
	assert.Equal(t, identity.RoleKAM, te.Role)
}

func TestValidateTransitionErrorMessage(t *testing.T) {
	err := ValidateTransition(StatusApproved, StatusUnderKAMReview, identity.RoleKAM)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "approved")
	assert.Contains(t, err.Error(), "under_kam_review")
	assert.Contains(t, err.Error(), "kam")
}

func TestTerminalStatusesHaveNoOutgoingEdges(t *testing.T) {
	for _, from := range []Status{StatusRejected, StatusWithdrawn, StatusClosed} {
		for _, to := range allStatuses {
			for _, role := range allRoles {
				assert.Error(t, ValidateTransition(from, to, role),
					"terminal %s must not allow %s", from, to)
			}
		}
	}
}

func TestAllowedTargets(t *testing.T) {
	targets := AllowedTargets(StatusSentToNBFC, identity.RoleCreditTeam)
	assert.ElementsMatch(t, []Status{StatusApproved, StatusRejected}, targets)

	assert.Empty(t, AllowedTargets(StatusSentToNBFC, identity.RoleClient))
	assert.Empty(t, AllowedTargets(StatusClosed, identity.RoleCreditTeam))
}
