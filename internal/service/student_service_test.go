package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edunest/tutoring-api/internal/models"
)

type mockStudentRepo struct {
	students    map[string]models.Student
	duplicates  map[string]string
	deactivated []string
	listTotal   int
	err         error
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, m.listTotal, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByNameAndPhone(ctx context.Context, fullName, phone, excludeID string) (bool, error) {
	if id, ok := m.duplicates[fullName+"|"+phone]; ok {
		if excludeID == "" || id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if student.ID == "" {
		student.ID = "generated"
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Deactivate(ctx context.Context, id string) error {
	m.deactivated = append(m.deactivated, id)
	if s, ok := m.students[id]; ok {
		s.Active = false
		m.students[id] = s
	}
	return nil
}

type mockSubjectLister struct {
	subjects map[string][]models.SubjectAssignment
}

func (m *mockSubjectLister) ListSubjects(ctx context.Context, studentID string) ([]models.SubjectAssignment, error) {
	return m.subjects[studentID], nil
}

func TestStudentServiceCreate(t *testing.T) {
	repo := &mockStudentRepo{duplicates: make(map[string]string)}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName: "Asha Nair",
		Branch:   "Andheri",
		Board:    "IGCSE",
		Grade:    "3",
		Phone:    "9999000011",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.True(t, student.Active)
	assert.Equal(t, 1, len(repo.students))
}

func TestStudentServiceCreateDuplicate(t *testing.T) {
	repo := &mockStudentRepo{duplicates: map[string]string{"Asha Nair|9999000011": "another"}}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName: "Asha Nair", Branch: "Andheri", Board: "IGCSE", Grade: "3", Phone: "9999000011",
	})
	require.Error(t, err)
}

func TestStudentServiceGetIncludesSubjects(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": {ID: "id1", FullName: "Asha", Active: true}}}
	subjects := &mockSubjectLister{subjects: map[string][]models.SubjectAssignment{
		"id1": {{Name: "Math"}, {Name: "Physics"}},
	}}
	svc := NewStudentService(repo, subjects, validator.New(), zap.NewNop())

	detail, err := svc.Get(context.Background(), "id1")
	require.NoError(t, err)
	assert.Len(t, detail.Subjects, 2)
}

func TestStudentServiceUpdate(t *testing.T) {
	repo := &mockStudentRepo{
		students:   map[string]models.Student{"id1": {ID: "id1", FullName: "Old", Branch: "Andheri", Board: "CBSE", Grade: "2", Phone: "1", Active: true}},
		duplicates: make(map[string]string),
	}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	updated, err := svc.Update(context.Background(), "id1", UpdateStudentRequest{
		FullName: "New", Branch: "Online", Board: "IB", Grade: "5", Phone: "2", Active: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.FullName)
	assert.Equal(t, "Online", updated.Branch)
	assert.Equal(t, "IB", updated.Board)
}

func TestStudentServiceDeactivate(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{"id1": {ID: "id1", FullName: "Asha", Active: true}}}
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	err := svc.Deactivate(context.Background(), "id1")
	require.NoError(t, err)
	assert.Contains(t, repo.deactivated, "id1")
	assert.False(t, repo.students["id1"].Active)
}
