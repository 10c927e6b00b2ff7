package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edunest/tutoring-api/internal/models"
	"github.com/edunest/tutoring-api/internal/pricing"
	appErrors "github.com/edunest/tutoring-api/pkg/errors"
)

type feeStateRepository interface {
	GetState(ctx context.Context, studentID string) (*models.FeeState, error)
	SaveState(ctx context.Context, studentID string, state *models.FeeState) error
	ListInstallments(ctx context.Context, studentID string) ([]models.Installment, error)
	ReplaceInstallments(ctx context.Context, studentID string, installments []models.Installment) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// SubjectInput is one subject line in a fee update payload. Dates are
// optional; a subject without both dates carries a zero fee until they are
// filled in.
type SubjectInput struct {
	Name      string     `json:"name" validate:"required"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// FeeUpdateRequest holds the payload for recomputing a student's fees.
// CustomTotal > 0 overrides the computed breakdown entirely.
type FeeUpdateRequest struct {
	Subjects              []SubjectInput `json:"subjects" validate:"required,min=1,dive"`
	GSTApplied            bool           `json:"gst_applied"`
	GSTPercentage         float64        `json:"gst_percentage" validate:"gte=0,lte=100"`
	ScholarshipApplied    bool           `json:"scholarship_applied"`
	ScholarshipPercentage float64        `json:"scholarship_percentage" validate:"gte=0,lte=100"`
	OneToOneApplied       bool           `json:"one_to_one_applied"`
	OneToOnePercentage    float64        `json:"one_to_one_percentage" validate:"gte=0,lte=100"`
	CustomTotal           float64        `json:"custom_total" validate:"gte=0"`
}

// PaymentRequest holds the payload for settling one installment.
type PaymentRequest struct {
	Amount      float64            `json:"amount" validate:"required,gt=0"`
	PaidDate    time.Time          `json:"paid_date" validate:"required"`
	PaymentType models.PaymentType `json:"payment_type" validate:"required,oneof=cash upi bank_transfer cheque card other"`
	Notes       string             `json:"notes"`
}

// FeeService orchestrates fee computation, persistence and the installment
// plan lifecycle for students.
type FeeService struct {
	students  studentReader
	repo      feeStateRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewFeeService constructs the fee service.
func NewFeeService(students studentReader, repo feeStateRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *FeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeService{
		students:  students,
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func feeCacheKey(studentID string) string {
	return fmt.Sprintf("fees:student:%s", studentID)
}

// Preview computes a fee breakdown without persisting anything.
func (s *FeeService) Preview(ctx context.Context, studentID string, req FeeUpdateRequest) (*models.FeeBreakdown, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	breakdown := s.compose(student, req)
	return &breakdown, nil
}

// Update recomputes the fee breakdown, reconciles the installment plan with
// payments already made, and persists the whole state in one transaction.
func (s *FeeService) Update(ctx context.Context, studentID string, req FeeUpdateRequest) (*models.FeeState, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid fee payload")
	}
	student, err := s.loadStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	breakdown := s.compose(student, req)

	existing, err := s.repo.ListInstallments(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load installments")
	}
	var plan []models.Installment
	if len(existing) > 0 {
		plan = pricing.RecalculateUnpaid(existing, breakdown.FinalTotal, s.now())
	} else {
		plan = breakdown.Installments
	}

	state := &models.FeeState{
		Config:       buildFeeConfig(req, breakdown),
		Subjects:     assignSubjectFees(req.Subjects, breakdown),
		Installments: plan,
	}
	if err := s.repo.SaveState(ctx, studentID, state); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save fee state")
	}
	s.invalidate(ctx, studentID)
	s.logger.Info("fee state updated",
		zap.String("student_id", studentID),
		zap.Float64("total", state.Config.TotalAmount),
		zap.Int("installments", len(state.Installments)))
	return state, nil
}

// GetState returns the persisted fee state of a student, served from cache
// when possible.
func (s *FeeService) GetState(ctx context.Context, studentID string) (*models.FeeState, error) {
	var cached models.FeeState
	if hit, _ := s.cache.Get(ctx, feeCacheKey(studentID), &cached); hit {
		return &cached, nil
	}

	state, err := s.repo.GetState(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee configuration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee state")
	}
	_ = s.cache.Set(ctx, feeCacheKey(studentID), state, 0)
	return state, nil
}

// RecordPayment settles one installment and recomputes its siblings. Settled
// installments are frozen and reject further payments. A partial payment
// settles the row; the shortfall moves to the remaining unpaid installments.
func (s *FeeService) RecordPayment(ctx context.Context, studentID string, seq int, req PaymentRequest) (*models.Installment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}
	state, err := s.requireState(ctx, studentID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range state.Installments {
		if state.Installments[i].Seq == seq {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "installment not found")
	}
	if state.Installments[idx].IsSettled() {
		return nil, appErrors.Clone(appErrors.ErrSettled, "installment already settled")
	}

	plan := append([]models.Installment{}, state.Installments...)
	paidDate := req.PaidDate
	plan[idx].Paid = req.Amount
	plan[idx].PaidDate = &paidDate
	plan[idx].PaymentType = req.PaymentType
	plan[idx].PaymentNotes = req.Notes

	plan = pricing.RecalculateUnpaid(plan, state.Config.TotalAmount, s.now())

	if err := s.repo.ReplaceInstallments(ctx, studentID, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	s.invalidate(ctx, studentID)
	s.logger.Info("installment payment recorded",
		zap.String("student_id", studentID),
		zap.Int("seq", seq),
		zap.Float64("amount", req.Amount))
	settled := plan[idx]
	return &settled, nil
}

// AddInstallment appends an unpaid slot to the plan and redistributes the
// outstanding balance across all unpaid installments.
func (s *FeeService) AddInstallment(ctx context.Context, studentID string) ([]models.Installment, error) {
	state, err := s.requireState(ctx, studentID)
	if err != nil {
		return nil, err
	}

	due := pricing.AddCalendarMonths(s.now(), 1)
	if n := len(state.Installments); n > 0 {
		due = pricing.AddCalendarMonths(state.Installments[n-1].DueDate, 1)
	}
	plan := append(state.Installments, models.Installment{
		DueDate:     due,
		PaymentType: models.PaymentCash,
	})
	plan = pricing.RecalculateUnpaid(plan, state.Config.TotalAmount, s.now())

	if err := s.repo.ReplaceInstallments(ctx, studentID, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add installment")
	}
	s.invalidate(ctx, studentID)
	return plan, nil
}

// DeleteInstallment removes an unpaid slot and redistributes the outstanding
// balance over the remaining unpaid installments. Settled installments cannot
// be removed.
func (s *FeeService) DeleteInstallment(ctx context.Context, studentID string, seq int) ([]models.Installment, error) {
	state, err := s.requireState(ctx, studentID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, inst := range state.Installments {
		if inst.Seq == seq {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "installment not found")
	}
	if state.Installments[idx].IsSettled() {
		return nil, appErrors.Clone(appErrors.ErrSettled, "cannot delete a settled installment")
	}

	plan := append([]models.Installment{}, state.Installments[:idx]...)
	plan = append(plan, state.Installments[idx+1:]...)
	plan = pricing.RecalculateUnpaid(plan, state.Config.TotalAmount, s.now())

	if err := s.repo.ReplaceInstallments(ctx, studentID, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete installment")
	}
	s.invalidate(ctx, studentID)
	return plan, nil
}

func (s *FeeService) loadStudent(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *FeeService) requireState(ctx context.Context, studentID string) (*models.FeeState, error) {
	state, err := s.repo.GetState(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee configuration not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee state")
	}
	return state, nil
}

func (s *FeeService) compose(student *models.Student, req FeeUpdateRequest) models.FeeBreakdown {
	subjects := make([]models.SubjectAssignment, 0, len(req.Subjects))
	for i, in := range req.Subjects {
		subjects = append(subjects, models.SubjectAssignment{
			Name:      in.Name,
			StartDate: in.StartDate,
			EndDate:   in.EndDate,
			Position:  i,
		})
	}
	breakdown := pricing.Compose(pricing.ComposeInput{
		Subjects: subjects,
		Branch:   student.Branch,
		Board:    student.Board,
		Grade:    student.Grade,
		Toggles: pricing.Toggles{
			GSTApplied:            req.GSTApplied,
			GSTPercentage:         req.GSTPercentage,
			ScholarshipApplied:    req.ScholarshipApplied,
			ScholarshipPercentage: req.ScholarshipPercentage,
			OneToOneApplied:       req.OneToOneApplied,
			OneToOnePercentage:    req.OneToOnePercentage,
		},
		CustomTotal: req.CustomTotal,
		AnchorDate:  s.now(),
	})
	s.metrics.RecordFeeComputation()
	return breakdown
}

func (s *FeeService) invalidate(ctx context.Context, studentID string) {
	_ = s.cache.Invalidate(ctx, feeCacheKey(studentID)+"*")
}

// buildFeeConfig folds the request toggles and the computed amounts into the
// persisted snapshot. Amounts always come from the breakdown so the snapshot
// can never disagree with the arithmetic that produced it.
func buildFeeConfig(req FeeUpdateRequest, breakdown models.FeeBreakdown) models.FeeConfig {
	return models.FeeConfig{
		BasePrice:             breakdown.BasePrice,
		GSTApplied:            req.GSTApplied,
		GSTPercentage:         req.GSTPercentage,
		GSTAmount:             breakdown.GSTAmount,
		ScholarshipApplied:    req.ScholarshipApplied,
		ScholarshipPercentage: req.ScholarshipPercentage,
		ScholarshipAmount:     breakdown.ScholarshipDiscount.Amount,
		OneToOneApplied:       req.OneToOneApplied,
		OneToOnePercentage:    req.OneToOnePercentage,
		OneToOneAmount:        breakdown.OneToOneAmount,
		SubjectDiscountAmount: breakdown.SubjectDiscount.Amount,
		BaseAmount:            breakdown.BaseAmount,
		TotalAmount:           breakdown.FinalTotal,
		CustomTotalApplied:    breakdown.CustomTotalApplied,
	}
}

// assignSubjectFees writes the per-subject fees computed by the breakdown
// back onto the assignment rows. The priced list skips undated subjects, so
// a cursor walks the two lists in step; under a custom total every subject
// has a share at its own index.
func assignSubjectFees(inputs []SubjectInput, breakdown models.FeeBreakdown) []models.SubjectAssignment {
	out := make([]models.SubjectAssignment, 0, len(inputs))
	cursor := 0
	for i, in := range inputs {
		subject := models.SubjectAssignment{
			Name:      in.Name,
			StartDate: in.StartDate,
			EndDate:   in.EndDate,
			Position:  i,
		}
		if breakdown.CustomTotalApplied {
			if i < len(breakdown.SubjectFees) {
				subject.Fee = breakdown.SubjectFees[i].Fee
			}
		} else if subject.HasDates() && cursor < len(breakdown.SubjectFees) {
			subject.Fee = breakdown.SubjectFees[cursor].Fee
			cursor++
		}
		out = append(out, subject)
	}
	return out
}
