package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edunest/tutoring-api/internal/models"
	"github.com/edunest/tutoring-api/internal/service"
	"github.com/edunest/tutoring-api/pkg/response"
)

type studentReaderMock struct {
	students map[string]models.Student
}

func (m *studentReaderMock) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type feeRepoMock struct {
	state *models.FeeState
	saved *models.FeeState
}

func (m *feeRepoMock) GetState(ctx context.Context, studentID string) (*models.FeeState, error) {
	if m.state == nil {
		return nil, sql.ErrNoRows
	}
	return m.state, nil
}

func (m *feeRepoMock) SaveState(ctx context.Context, studentID string, state *models.FeeState) error {
	m.saved = state
	return nil
}

func (m *feeRepoMock) ListInstallments(ctx context.Context, studentID string) ([]models.Installment, error) {
	if m.state == nil {
		return nil, nil
	}
	return m.state.Installments, nil
}

func (m *feeRepoMock) ReplaceInstallments(ctx context.Context, studentID string, installments []models.Installment) error {
	return nil
}

func newFeeHandler(repo *feeRepoMock) *FeeHandler {
	students := &studentReaderMock{students: map[string]models.Student{
		"stu-1": {ID: "stu-1", FullName: "Asha", Branch: "Andheri", Board: "IGCSE", Grade: "3", Active: true},
	}}
	return NewFeeHandler(service.NewFeeService(students, repo, nil, nil, nil, nil))
}

func testContext(t *testing.T, method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func feeRequestBody() service.FeeUpdateRequest {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 30, 0, 0, 0, 0, time.UTC)
	return service.FeeUpdateRequest{
		Subjects: []service.SubjectInput{{Name: "Math", StartDate: &start, EndDate: &end}},
	}
}

func TestFeeHandlerPreview(t *testing.T) {
	handler := newFeeHandler(&feeRepoMock{})
	c, w := testContext(t, http.MethodPost, "/students/stu-1/fees/preview", feeRequestBody())
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}

	handler.Preview(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.FeeBreakdown `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 1452.0, envelope.Data.FinalTotal)
}

func TestFeeHandlerPreviewInvalidBody(t *testing.T) {
	handler := newFeeHandler(&feeRepoMock{})
	c, w := testContext(t, http.MethodPost, "/students/stu-1/fees/preview", nil)
	c.Request.Body = http.NoBody
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}

	handler.Preview(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeeHandlerUpdatePersists(t *testing.T) {
	repo := &feeRepoMock{}
	handler := newFeeHandler(repo)
	c, w := testContext(t, http.MethodPut, "/students/stu-1/fees", feeRequestBody())
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}

	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, repo.saved)
	assert.Equal(t, 1452.0, repo.saved.Config.TotalAmount)
}

func TestFeeHandlerRecordPaymentInvalidSeq(t *testing.T) {
	handler := newFeeHandler(&feeRepoMock{})
	c, w := testContext(t, http.MethodPost, "/students/stu-1/installments/abc/payment", service.PaymentRequest{})
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}, {Key: "seq", Value: "abc"}}

	handler.RecordPayment(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeeHandlerRecordPaymentOnSettledInstallment(t *testing.T) {
	paidOn := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	repo := &feeRepoMock{state: &models.FeeState{
		Installments: []models.Installment{{Seq: 0, Pay: 700, Paid: 700, PaidDate: &paidOn}},
	}}
	handler := newFeeHandler(repo)
	c, w := testContext(t, http.MethodPost, "/students/stu-1/installments/0/payment", service.PaymentRequest{
		Amount:      100,
		PaidDate:    time.Now(),
		PaymentType: models.PaymentCash,
	})
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}, {Key: "seq", Value: "0"}}

	handler.RecordPayment(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "INSTALLMENT_SETTLED", envelope.Error.Code)
}

func TestFeeHandlerGetStateNotFound(t *testing.T) {
	handler := newFeeHandler(&feeRepoMock{})
	c, w := testContext(t, http.MethodGet, "/students/stu-1/fees", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}

	handler.GetState(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeeHandlerDeleteInstallment(t *testing.T) {
	repo := &feeRepoMock{state: &models.FeeState{
		Config: models.FeeConfig{TotalAmount: 900},
		Installments: []models.Installment{
			{Seq: 0, Pay: 450, DueDate: time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)},
			{Seq: 1, Pay: 450, DueDate: time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)},
		},
	}}
	handler := newFeeHandler(repo)
	c, w := testContext(t, http.MethodDelete, "/students/stu-1/installments/1", nil)
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}, {Key: "seq", Value: "1"}}

	handler.DeleteInstallment(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.Installment `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, 900.0, envelope.Data[0].Pay)
}
