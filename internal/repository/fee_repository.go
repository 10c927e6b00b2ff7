package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edunest/tutoring-api/internal/models"
)

// FeeRepository manages the persisted fee state of a student: the pricing
// snapshot, the subject assignments and the installment plan. Writes replace
// the whole state in one transaction; the pricing engine recomputes it
// wholesale, so partial updates would only invite drift.
type FeeRepository struct {
	db *sqlx.DB
}

// NewFeeRepository constructs a FeeRepository.
func NewFeeRepository(db *sqlx.DB) *FeeRepository {
	return &FeeRepository{db: db}
}

// GetState loads the full fee state for a student. A student without a saved
// fee configuration yields sql.ErrNoRows.
func (r *FeeRepository) GetState(ctx context.Context, studentID string) (*models.FeeState, error) {
	const configQuery = `SELECT student_id, base_price, gst_applied, gst_percentage, gst_amount,
        scholarship_applied, scholarship_percentage, scholarship_amount,
        one_to_one_applied, one_to_one_percentage, one_to_one_amount,
        subject_discount_amount, base_amount, total_amount, custom_total_applied, updated_at
        FROM fee_configs WHERE student_id = $1`
	var state models.FeeState
	if err := r.db.GetContext(ctx, &state.Config, configQuery, studentID); err != nil {
		return nil, err
	}

	subjects, err := r.ListSubjects(ctx, studentID)
	if err != nil {
		return nil, err
	}
	state.Subjects = subjects

	installments, err := r.ListInstallments(ctx, studentID)
	if err != nil {
		return nil, err
	}
	state.Installments = installments
	return &state, nil
}

// ListSubjects returns the subject assignments of a student in display order.
func (r *FeeRepository) ListSubjects(ctx context.Context, studentID string) ([]models.SubjectAssignment, error) {
	const query = `SELECT id, student_id, name, start_date, end_date, fee, position
        FROM subject_assignments WHERE student_id = $1 ORDER BY position ASC`
	var subjects []models.SubjectAssignment
	if err := r.db.SelectContext(ctx, &subjects, query, studentID); err != nil {
		return nil, fmt.Errorf("list subject assignments: %w", err)
	}
	return subjects, nil
}

// ListInstallments returns the installment plan of a student in sequence order.
func (r *FeeRepository) ListInstallments(ctx context.Context, studentID string) ([]models.Installment, error) {
	const query = `SELECT id, student_id, seq, pay, paid, due_date, paid_date, payment_type, payment_notes, is_original, updated_at
        FROM installments WHERE student_id = $1 ORDER BY seq ASC`
	var installments []models.Installment
	if err := r.db.SelectContext(ctx, &installments, query, studentID); err != nil {
		return nil, fmt.Errorf("list installments: %w", err)
	}
	return installments, nil
}

// SaveState replaces the student's fee state within a transaction.
func (r *FeeRepository) SaveState(ctx context.Context, studentID string, state *models.FeeState) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save fee state: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	state.Config.StudentID = studentID
	state.Config.UpdatedAt = now
	const configQuery = `INSERT INTO fee_configs (student_id, base_price, gst_applied, gst_percentage, gst_amount,
        scholarship_applied, scholarship_percentage, scholarship_amount,
        one_to_one_applied, one_to_one_percentage, one_to_one_amount,
        subject_discount_amount, base_amount, total_amount, custom_total_applied, updated_at)
        VALUES (:student_id, :base_price, :gst_applied, :gst_percentage, :gst_amount,
        :scholarship_applied, :scholarship_percentage, :scholarship_amount,
        :one_to_one_applied, :one_to_one_percentage, :one_to_one_amount,
        :subject_discount_amount, :base_amount, :total_amount, :custom_total_applied, :updated_at)
        ON CONFLICT (student_id) DO UPDATE SET
        base_price = EXCLUDED.base_price, gst_applied = EXCLUDED.gst_applied,
        gst_percentage = EXCLUDED.gst_percentage, gst_amount = EXCLUDED.gst_amount,
        scholarship_applied = EXCLUDED.scholarship_applied, scholarship_percentage = EXCLUDED.scholarship_percentage,
        scholarship_amount = EXCLUDED.scholarship_amount, one_to_one_applied = EXCLUDED.one_to_one_applied,
        one_to_one_percentage = EXCLUDED.one_to_one_percentage, one_to_one_amount = EXCLUDED.one_to_one_amount,
        subject_discount_amount = EXCLUDED.subject_discount_amount, base_amount = EXCLUDED.base_amount,
        total_amount = EXCLUDED.total_amount, custom_total_applied = EXCLUDED.custom_total_applied,
        updated_at = EXCLUDED.updated_at`
	if _, err = tx.NamedExecContext(ctx, configQuery, &state.Config); err != nil {
		return fmt.Errorf("save fee config: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM subject_assignments WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("clear subject assignments: %w", err)
	}
	for i := range state.Subjects {
		payload := state.Subjects[i]
		payload.StudentID = studentID
		payload.Position = i
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO subject_assignments (id, student_id, name, start_date, end_date, fee, position)
            VALUES (:id, :student_id, :name, :start_date, :end_date, :fee, :position)`, &payload); err != nil {
			return fmt.Errorf("insert subject assignment: %w", err)
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM installments WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("clear installments: %w", err)
	}
	for i := range state.Installments {
		payload := state.Installments[i]
		payload.StudentID = studentID
		payload.Seq = i
		payload.UpdatedAt = now
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO installments (id, student_id, seq, pay, paid, due_date, paid_date, payment_type, payment_notes, is_original, updated_at)
            VALUES (:id, :student_id, :seq, :pay, :paid, :due_date, :paid_date, :payment_type, :payment_notes, :is_original, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("insert installment: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save fee state: %w", err)
	}
	return nil
}

// ReplaceInstallments swaps the whole installment plan inside a transaction,
// leaving the fee config and subjects untouched.
func (r *FeeRepository) ReplaceInstallments(ctx context.Context, studentID string, installments []models.Installment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace installments: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM installments WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("clear installments: %w", err)
	}

	now := time.Now().UTC()
	for i := range installments {
		payload := installments[i]
		payload.StudentID = studentID
		payload.Seq = i
		payload.UpdatedAt = now
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO installments (id, student_id, seq, pay, paid, due_date, paid_date, payment_type, payment_notes, is_original, updated_at)
            VALUES (:id, :student_id, :seq, :pay, :paid, :due_date, :paid_date, :payment_type, :payment_notes, :is_original, :updated_at)`, &payload); err != nil {
			return fmt.Errorf("insert installment: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace installments: %w", err)
	}
	return nil
}
