package models

import "time"

// PaymentType enumerates accepted payment instruments.
type PaymentType string

const (
	PaymentCash         PaymentType = "cash"
	PaymentUPI          PaymentType = "upi"
	PaymentBankTransfer PaymentType = "bank_transfer"
	PaymentCheque       PaymentType = "cheque"
	PaymentCard         PaymentType = "card"
	PaymentOther        PaymentType = "other"
)

// Installment is one scheduled partial payment of a student's total fee.
// Seq is the chronological position within the plan; due dates of adjacent
// installments are exactly one calendar month apart.
type Installment struct {
	ID           string      `db:"id" json:"id"`
	StudentID    string      `db:"student_id" json:"student_id"`
	Seq          int         `db:"seq" json:"seq"`
	Pay          float64     `db:"pay" json:"pay"`
	Paid         float64     `db:"paid" json:"paid"`
	DueDate      time.Time   `db:"due_date" json:"due_date"`
	PaidDate     *time.Time  `db:"paid_date" json:"paid_date,omitempty"`
	PaymentType  PaymentType `db:"payment_type" json:"payment_type"`
	PaymentNotes string      `db:"payment_notes" json:"payment_notes"`
	IsOriginal   bool        `db:"is_original" json:"is_original"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// IsSettled reports whether the installment has been paid. The predicate is
// derived from the two payment fields rather than stored, so the flag can
// never drift from the data it summarises. Settled installments are frozen:
// recomputation must not touch their amount or due date.
func (i Installment) IsSettled() bool {
	return i.Paid > 0 && i.PaidDate != nil
}
