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

	"github.com/lamdn/course-registration-api/internal/middleware"
	"github.com/lamdn/course-registration-api/internal/models"
	"github.com/lamdn/course-registration-api/internal/service"
)

type fakeCartStore struct {
	items    []models.CartItemDetail
	inserted *models.CartItem
}

func (f *fakeCartStore) ListMine(context.Context, int64) ([]models.CartItemDetail, error) {
	return f.items, nil
}

func (f *fakeCartStore) Find(context.Context, int64, int64) (*models.CartItem, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeCartStore) Insert(ctx context.Context, item *models.CartItem) error {
	item.ID = "item-1"
	f.inserted = item
	return nil
}

func (f *fakeCartStore) Delete(context.Context, int64, int64) error { return nil }

func (f *fakeCartStore) ListByStatus(context.Context, int64, models.CartStatus) ([]models.CartItemDetail, error) {
	return f.items, nil
}

func (f *fakeCartStore) ListByStatusInRange(context.Context, int64, models.CartStatus, time.Time, time.Time) ([]models.CartItemDetail, error) {
	return f.items, nil
}

func (f *fakeCartStore) ConfirmSelected(context.Context, int64) (int64, error) { return 0, nil }

func (f *fakeCartStore) PayPending(context.Context, int64, time.Time) (int64, int64, error) {
	return 0, 0, nil
}

func (f *fakeCartStore) ListPaid(context.Context) ([]models.CartItemDetail, error) {
	return f.items, nil
}

func (f *fakeCartStore) ListAllAdmin(context.Context) ([]models.CartItemDetail, error) {
	return f.items, nil
}

func (f *fakeCartStore) ListRoster(context.Context, int64) ([]models.RosterEntry, error) {
	return nil, nil
}

type fakeCourseReader struct{}

func (f *fakeCourseReader) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	return &models.Course{ID: id, SubjectName: "Văn", Price: 700000}, nil
}

func (f *fakeCourseReader) ListAvailable(context.Context, int64) ([]models.Course, error) {
	return nil, nil
}

type fakePeriodReader struct{}

func (f *fakePeriodReader) ListAll(context.Context) ([]models.RegistrationPeriod, error) {
	now := time.Now().UTC()
	return []models.RegistrationPeriod{{
		ID:            "p1",
		BeginRegister: now.Add(-time.Hour),
		EndRegister:   now.Add(time.Hour),
		DueDateStart:  now.Add(-time.Hour),
		DueDateEnd:    now.Add(time.Hour),
	}}, nil
}

type fakeProofConsumer struct{}

func (f *fakeProofConsumer) Consume(context.Context, int64, string) error { return nil }

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error json.RawMessage `json:"error"`
}

func newTestCartHandler(store *fakeCartStore) *CartHandler {
	carts := service.NewCartService(store, &fakeCourseReader{}, &fakePeriodReader{}, &fakeProofConsumer{}, nil, nil)
	return NewCartHandler(carts, nil, nil)
}

func authedContext(t *testing.T, rec *httptest.ResponseRecorder, method, target string, body []byte) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(rec)
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 1, Role: models.RoleStudent})
	return c
}

func TestCartHandlerAdd(t *testing.T) {
	store := &fakeCartStore{}
	handler := newTestCartHandler(store)

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, http.MethodPost, "/classmember", []byte(`{"course_id":7}`))

	handler.Add(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, store.inserted)
	assert.Equal(t, int64(700000), store.inserted.Price)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var detail models.CartItemDetail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "chờ thanh toán", detail.StatusLabel)
	assert.Equal(t, "700.000", detail.PriceDisplay)
}

func TestCartHandlerAddRejectsBadPayload(t *testing.T) {
	handler := newTestCartHandler(&fakeCartStore{})

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, http.MethodPost, "/classmember", []byte(`{"course_id":"seven"}`))

	handler.Add(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartHandlerListMineRequiresClaims(t *testing.T) {
	handler := newTestCartHandler(&fakeCartStore{})

	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/classmember", nil)

	handler.ListMine(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCartHandlerRosterRejectsBadID(t *testing.T) {
	handler := newTestCartHandler(&fakeCartStore{})

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, http.MethodGet, "/classmember/teacher/abc/students", nil)
	c.Params = gin.Params{{Key: "courseId", Value: "abc"}}

	handler.Roster(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
