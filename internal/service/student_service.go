package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edunest/tutoring-api/internal/models"
	appErrors "github.com/edunest/tutoring-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByNameAndPhone(ctx context.Context, fullName, phone, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Deactivate(ctx context.Context, id string) error
}

type subjectLister interface {
	ListSubjects(ctx context.Context, studentID string) ([]models.SubjectAssignment, error)
}

// CreateStudentRequest holds payload for registering students.
type CreateStudentRequest struct {
	FullName     string `json:"full_name" validate:"required"`
	Branch       string `json:"branch" validate:"required"`
	Board        string `json:"board" validate:"required"`
	Grade        string `json:"grade" validate:"required"`
	GuardianName string `json:"guardian_name"`
	Phone        string `json:"phone" validate:"required"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	FullName     string `json:"full_name" validate:"required"`
	Branch       string `json:"branch" validate:"required"`
	Board        string `json:"board" validate:"required"`
	Grade        string `json:"grade" validate:"required"`
	GuardianName string `json:"guardian_name"`
	Phone        string `json:"phone" validate:"required"`
	Active       bool   `json:"active"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	subjects  subjectLister
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, subjects subjectLister, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, subjects: subjects, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return students, pagination, nil
}

// Get returns a student with subject assignments.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	detail := &models.StudentDetail{Student: *student}
	if s.subjects != nil {
		subjects, err := s.subjects.ListSubjects(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject assignments")
		}
		detail.Subjects = subjects
	}
	return detail, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	exists, err := s.repo.ExistsByNameAndPhone(ctx, req.FullName, req.Phone, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check duplicate student")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already registered")
	}
	student := &models.Student{
		FullName:     req.FullName,
		Branch:       req.Branch,
		Board:        req.Board,
		Grade:        req.Grade,
		GuardianName: req.GuardianName,
		Phone:        req.Phone,
		Active:       true,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	s.logger.Info("student registered",
		zap.String("student_id", student.ID),
		zap.String("branch", student.Branch),
		zap.String("board", student.Board))
	return student, nil
}

// Update modifies an existing student record. A change of branch, board or
// grade does not touch the saved fee state; fees are only recomputed on the
// next fee update.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	exists, err := s.repo.ExistsByNameAndPhone(ctx, req.FullName, req.Phone, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check duplicate student")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already registered")
	}
	student.FullName = req.FullName
	student.Branch = req.Branch
	student.Board = req.Board
	student.Grade = req.Grade
	student.GuardianName = req.GuardianName
	student.Phone = req.Phone
	student.Active = req.Active
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Deactivate marks a student inactive. The fee state and payment history are
// retained.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	return nil
}
