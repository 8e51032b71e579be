package loan

import "strings"

// Status represents the canonical loan-application status.
type Status string

const (
	StatusDraft               Status = "draft"
	StatusUnderKAMReview      Status = "under_kam_review"
	StatusQueryWithClient     Status = "query_with_client"
	StatusPendingCreditReview Status = "pending_credit_review"
	StatusCreditQueryWithKAM  Status = "credit_query_with_kam"
	StatusInNegotiation       Status = "in_negotiation"
	StatusSentToNBFC          Status = "sent_to_nbfc"
	StatusApproved            Status = "approved"
	StatusRejected            Status = "rejected"
	StatusDisbursed           Status = "disbursed"
	StatusWithdrawn           Status = "withdrawn"
	StatusClosed              Status = "closed"
)

// statusAliases maps legacy tokens still present in stored records to their
// canonical form.
var statusAliases = map[string]Status{
	"forwarded_to_credit": StatusPendingCreditReview,
	"credit_query_raised": StatusCreditQueryWithKAM,
	"pending_kam_review":  StatusUnderKAMReview,
	"kam_query_raised":    StatusQueryWithClient,
}

// NormalizeStatus canonicalizes a loosely-typed status token. Blank input
// means a record that has never been submitted, i.e. draft. Tokens that are
// neither canonical nor aliased pass through unchanged; sanitizing genuinely
// unknown values would hide data problems instead of surfacing them.
// Normalization is idempotent.
func NormalizeStatus(raw string) Status {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return StatusDraft
	}
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	if canonical, ok := statusAliases[s]; ok {
		return canonical
	}
	return Status(s)
}
