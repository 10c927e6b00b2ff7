package models

import "time"

// AuditAction constants represent fee operations to be logged.
const (
	AuditActionFeeUpdate          = "FEE_UPDATE"
	AuditActionInstallmentPayment = "INSTALLMENT_PAYMENT"
	AuditActionInstallmentAdd     = "INSTALLMENT_ADD"
	AuditActionInstallmentDelete  = "INSTALLMENT_DELETE"
	AuditActionStudentCreate      = "STUDENT_CREATE"
)

// AuditLog represents an audit trail record for a fee mutation.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
