package models

import "time"

// FeeConfig is the persisted pricing snapshot for one student. It is
// recomputed wholesale on every relevant edit, never patched incrementally.
type FeeConfig struct {
	StudentID             string    `db:"student_id" json:"student_id"`
	BasePrice             float64   `db:"base_price" json:"base_price"`
	GSTApplied            bool      `db:"gst_applied" json:"gst_applied"`
	GSTPercentage         float64   `db:"gst_percentage" json:"gst_percentage"`
	GSTAmount             float64   `db:"gst_amount" json:"gst_amount"`
	ScholarshipApplied    bool      `db:"scholarship_applied" json:"scholarship_applied"`
	ScholarshipPercentage float64   `db:"scholarship_percentage" json:"scholarship_percentage"`
	ScholarshipAmount     float64   `db:"scholarship_amount" json:"scholarship_amount"`
	OneToOneApplied       bool      `db:"one_to_one_applied" json:"one_to_one_applied"`
	OneToOnePercentage    float64   `db:"one_to_one_percentage" json:"one_to_one_percentage"`
	OneToOneAmount        float64   `db:"one_to_one_amount" json:"one_to_one_amount"`
	SubjectDiscountAmount float64   `db:"subject_discount_amount" json:"subject_discount_amount"`
	BaseAmount            float64   `db:"base_amount" json:"base_amount"`
	TotalAmount           float64   `db:"total_amount" json:"total_amount"`
	CustomTotalApplied    bool      `db:"custom_total_applied" json:"custom_total_applied"`
	UpdatedAt             time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectFee is one line of the per-subject fee list in a breakdown.
type SubjectFee struct {
	Subject string  `json:"subject"`
	Fee     float64 `json:"fee"`
}

// DiscountLine pairs a percentage with the amount it produced.
type DiscountLine struct {
	Percentage float64 `json:"percentage"`
	Amount     float64 `json:"amount"`
}

// FeeBreakdown is the ephemeral result of one pricing computation. It is a
// pure function of its inputs and is discarded after use; only FinalTotal,
// the subject fees and the installments are written into the student record.
type FeeBreakdown struct {
	SubjectFees         []SubjectFee  `json:"subject_fees"`
	Subtotal            float64       `json:"subtotal"`
	SubjectDiscount     DiscountLine  `json:"subject_discount"`
	ScholarshipDiscount DiscountLine  `json:"scholarship_discount"`
	OneToOneAmount      float64       `json:"one_to_one_amount"`
	BasePrice           float64       `json:"base_price"`
	BaseAmount          float64       `json:"base_amount"`
	GSTAmount           float64       `json:"gst_amount"`
	FinalTotal          float64       `json:"final_total"`
	CustomTotalApplied  bool          `json:"custom_total_applied"`
	Installments        []Installment `json:"installments"`
}

// FeeState is the persisted fee view of one student: pricing snapshot,
// subject assignments with their derived fees, and the installment plan.
type FeeState struct {
	Config       FeeConfig           `json:"fee_config"`
	Subjects     []SubjectAssignment `json:"subjects"`
	Installments []Installment       `json:"installments"`
}
