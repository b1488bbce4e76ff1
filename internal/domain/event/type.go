package event

// Type identifies the type of domain event
type Type string

const (
	TypeExpenseSubmitted  Type = "expense.submitted"
	TypeApprovalRequested Type = "approval.requested"
	TypeApprovalDecided   Type = "approval.decided"
	TypeExpenseApproved   Type = "expense.approved"
	TypeExpenseRejected   Type = "expense.rejected"
	TypeRuleUpdated       Type = "rule.updated"
)

func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeExpenseSubmitted,
		TypeApprovalRequested,
		TypeApprovalDecided,
		TypeExpenseApproved,
		TypeExpenseRejected,
		TypeRuleUpdated:
		return true
	default:
		return false
	}
}

// Payload keys shared by publishers and subscribers
const (
	KeyEmployeeID   = "employee_id"
	KeyCompanyID    = "company_id"
	KeyApproverID   = "approver_id"
	KeyApproverName = "approver_name"
	KeyRequestID    = "request_id"
	KeyOutcome      = "outcome"
	KeyComments     = "comments"
	KeyAmount       = "amount"
	KeyCurrency     = "currency"
	KeyDescription  = "description"
	KeyUpdatedBy    = "updated_by"
)
