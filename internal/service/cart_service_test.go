package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lamdn/course-registration-api/internal/models"
	appErrors "github.com/lamdn/course-registration-api/pkg/errors"
)

type cartKey struct {
	userID   int64
	courseID int64
}

type mockCartRepo struct {
	items     map[cartKey]models.CartItem
	confirmed int64
	deleted   []cartKey
}

func (m *mockCartRepo) ListMine(ctx context.Context, userID int64) ([]models.CartItemDetail, error) {
	var list []models.CartItemDetail
	for key, item := range m.items {
		if key.userID == userID {
			list = append(list, models.CartItemDetail{CartItem: item})
		}
	}
	return list, nil
}

func (m *mockCartRepo) Find(ctx context.Context, userID, courseID int64) (*models.CartItem, error) {
	if item, ok := m.items[cartKey{userID, courseID}]; ok {
		return &item, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCartRepo) Insert(ctx context.Context, item *models.CartItem) error {
	if m.items == nil {
		m.items = make(map[cartKey]models.CartItem)
	}
	if item.ID == "" {
		item.ID = "new-item"
	}
	item.CreatedAt = time.Now().UTC()
	m.items[cartKey{item.UserID, item.CourseID}] = *item
	return nil
}

func (m *mockCartRepo) Delete(ctx context.Context, userID, courseID int64) error {
	key := cartKey{userID, courseID}
	delete(m.items, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockCartRepo) ListByStatus(ctx context.Context, userID int64, status models.CartStatus) ([]models.CartItemDetail, error) {
	return m.filter(userID, status, nil, nil), nil
}

func (m *mockCartRepo) ListByStatusInRange(ctx context.Context, userID int64, status models.CartStatus, from, to time.Time) ([]models.CartItemDetail, error) {
	return m.filter(userID, status, &from, &to), nil
}

func (m *mockCartRepo) filter(userID int64, status models.CartStatus, from, to *time.Time) []models.CartItemDetail {
	list := []models.CartItemDetail{}
	for key, item := range m.items {
		if key.userID != userID {
			continue
		}
		if status.IsPending() {
			if !item.Status.IsPending() {
				continue
			}
		} else if item.Status != status {
			continue
		}
		if from != nil && item.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && item.CreatedAt.After(*to) {
			continue
		}
		list = append(list, models.CartItemDetail{CartItem: item})
	}
	return list
}

func (m *mockCartRepo) ConfirmSelected(ctx context.Context, userID int64) (int64, error) {
	var n int64
	for key, item := range m.items {
		if key.userID == userID && item.Status == models.StatusSelected {
			item.Status = models.StatusConfirmed
			m.items[key] = item
			n++
		}
	}
	m.confirmed += n
	return n, nil
}

func (m *mockCartRepo) PayPending(ctx context.Context, userID int64, paidAt time.Time) (int64, int64, error) {
	var count, total int64
	for key, item := range m.items {
		if key.userID == userID && item.Status.IsPending() {
			item.Status = models.StatusPaid
			at := paidAt
			item.PaidAt = &at
			m.items[key] = item
			count++
			total += item.Price
		}
	}
	return count, total, nil
}

func (m *mockCartRepo) ListPaid(ctx context.Context) ([]models.CartItemDetail, error) {
	list := []models.CartItemDetail{}
	for _, item := range m.items {
		if item.Status == models.StatusPaid {
			list = append(list, models.CartItemDetail{CartItem: item})
		}
	}
	return list, nil
}

func (m *mockCartRepo) ListAllAdmin(ctx context.Context) ([]models.CartItemDetail, error) {
	list := []models.CartItemDetail{}
	for _, item := range m.items {
		list = append(list, models.CartItemDetail{CartItem: item})
	}
	return list, nil
}

func (m *mockCartRepo) ListRoster(ctx context.Context, courseID int64) ([]models.RosterEntry, error) {
	list := []models.RosterEntry{}
	for key, item := range m.items {
		if key.courseID == courseID {
			list = append(list, models.RosterEntry{UserID: key.userID, Status: item.Status})
		}
	}
	return list, nil
}

type mockCourseRepo struct {
	courses map[int64]models.Course
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) ListAvailable(ctx context.Context, userID int64) ([]models.Course, error) {
	var list []models.Course
	for _, c := range m.courses {
		list = append(list, c)
	}
	return list, nil
}

type mockPeriodReader struct {
	periods []models.RegistrationPeriod
}

func (m *mockPeriodReader) ListAll(ctx context.Context) ([]models.RegistrationPeriod, error) {
	return m.periods, nil
}

type mockProofConsumer struct {
	valid    map[string]bool
	consumed []string
}

func (m *mockProofConsumer) Consume(ctx context.Context, userID int64, token string) error {
	if !m.valid[token] {
		return appErrors.Clone(appErrors.ErrPaymentProofRequired, "")
	}
	delete(m.valid, token)
	m.consumed = append(m.consumed, token)
	return nil
}

func openPeriod(now time.Time) models.RegistrationPeriod {
	return models.RegistrationPeriod{
		ID:            "p1",
		Year:          2026,
		Semester:      1,
		BeginRegister: now.Add(-24 * time.Hour),
		EndRegister:   now.Add(24 * time.Hour),
		DueDateStart:  now.Add(-24 * time.Hour),
		DueDateEnd:    now.Add(72 * time.Hour),
	}
}

func newCartService(repo *mockCartRepo, courses *mockCourseRepo, periods *mockPeriodReader, proofs *mockProofConsumer, now time.Time) *CartService {
	svc := NewCartService(repo, courses, periods, proofs, validator.New(), zap.NewNop())
	svc.now = func() time.Time { return now }
	return svc
}

func TestCartServiceAddFreezesPrice(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &mockCartRepo{}
	courses := &mockCourseRepo{courses: map[int64]models.Course{7: {ID: 7, SubjectName: "Toán", Price: 1100000}}}
	svc := newCartService(repo, courses, &mockPeriodReader{periods: []models.RegistrationPeriod{openPeriod(now)}}, &mockProofConsumer{}, now)

	detail, err := svc.Add(context.Background(), 1, AddCourseRequest{CourseID: 7})
	require.NoError(t, err)
	assert.Equal(t, models.StatusSelected, detail.Status)
	assert.Equal(t, int64(1100000), detail.Price)
	assert.Equal(t, "1.100.000", detail.PriceDisplay)

	// A later catalog change must not move the stored amount.
	courses.courses[7] = models.Course{ID: 7, SubjectName: "Toán", Price: 9999999}
	snapshot, err := svc.ListMine(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, int64(1100000), snapshot.Items[0].Price)
}

func TestCartServiceAddOutsideWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	closed := openPeriod(now)
	closed.BeginRegister = now.Add(-96 * time.Hour)
	closed.EndRegister = now.Add(-48 * time.Hour)
	svc := newCartService(&mockCartRepo{}, &mockCourseRepo{courses: map[int64]models.Course{7: {ID: 7, Price: 100}}},
		&mockPeriodReader{periods: []models.RegistrationPeriod{closed}}, &mockProofConsumer{}, now)

	_, err := svc.Add(context.Background(), 1, AddCourseRequest{CourseID: 7})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrOutsideWindow))
}

func TestCartServiceAddDuplicateAndPaid(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &mockCartRepo{items: map[cartKey]models.CartItem{
		{1, 7}: {ID: "i1", UserID: 1, CourseID: 7, Status: models.StatusSelected, Price: 100},
		{1, 8}: {ID: "i2", UserID: 1, CourseID: 8, Status: models.StatusPaid, Price: 200},
	}}
	courses := &mockCourseRepo{courses: map[int64]models.Course{7: {ID: 7, Price: 100}, 8: {ID: 8, Price: 200}}}
	svc := newCartService(repo, courses, &mockPeriodReader{periods: []models.RegistrationPeriod{openPeriod(now)}}, &mockProofConsumer{}, now)

	_, err := svc.Add(context.Background(), 1, AddCourseRequest{CourseID: 7})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrConflict))

	_, err = svc.Add(context.Background(), 1, AddCourseRequest{CourseID: 8})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrAlreadyPaid))
}

func TestCartServiceRemove(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &mockCartRepo{items: map[cartKey]models.CartItem{
		{1, 7}: {ID: "i1", UserID: 1, CourseID: 7, Status: models.StatusConfirmed, Price: 100},
		{1, 8}: {ID: "i2", UserID: 1, CourseID: 8, Status: models.StatusPaid, Price: 200},
	}}
	// Removal needs no open window.
	svc := newCartService(repo, &mockCourseRepo{}, &mockPeriodReader{}, &mockProofConsumer{}, now)

	require.NoError(t, svc.Remove(context.Background(), 1, RemoveCourseRequest{CourseID: 7}))
	assert.Contains(t, repo.deleted, cartKey{1, 7})

	err := svc.Remove(context.Background(), 1, RemoveCourseRequest{CourseID: 8})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrAlreadyPaid))

	err = svc.Remove(context.Background(), 1, RemoveCourseRequest{CourseID: 99})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestCartServiceSaveIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &mockCartRepo{items: map[cartKey]models.CartItem{
		{1, 7}: {ID: "i1", UserID: 1, CourseID: 7, Status: models.StatusSelected, Price: 500000},
	}}
	svc := newCartService(repo, &mockCourseRepo{}, &mockPeriodReader{}, &mockProofConsumer{}, now)

	snapshot, err := svc.Save(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, models.StatusConfirmed, snapshot.Items[0].Status)
	assert.Equal(t, int64(1), repo.confirmed)

	again, err := svc.Save(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, again.Items, 1)
	assert.Equal(t, models.StatusConfirmed, again.Items[0].Status)
	assert.Equal(t, int64(1), repo.confirmed)
}

func TestCartServicePay(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &mockCartRepo{items: map[cartKey]models.CartItem{
		{1, 7}: {ID: "i1", UserID: 1, CourseID: 7, Status: models.StatusSelected, Price: 500000},
		{1, 8}: {ID: "i2", UserID: 1, CourseID: 8, Status: models.StatusConfirmed, Price: 600000},
	}}
	proofs := &mockProofConsumer{valid: map[string]bool{"tok": true}}
	svc := newCartService(repo, &mockCourseRepo{}, &mockPeriodReader{periods: []models.RegistrationPeriod{openPeriod(now)}}, proofs, now)

	result, err := svc.Pay(context.Background(), 1, PayTuitionRequest{ProofToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.PaidCount)
	assert.Equal(t, int64(1100000), result.Total)
	assert.Equal(t, "1.100.000", result.TotalDisplay)
	assert.Contains(t, proofs.consumed, "tok")

	snapshot, err := svc.ListMine(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, snapshot.Completed)
	assert.Equal(t, int64(0), snapshot.Total)
}

func TestCartServicePayRequiresProof(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &mockCartRepo{items: map[cartKey]models.CartItem{
		{1, 7}: {ID: "i1", UserID: 1, CourseID: 7, Status: models.StatusSelected, Price: 500000},
	}}
	svc := newCartService(repo, &mockCourseRepo{}, &mockPeriodReader{periods: []models.RegistrationPeriod{openPeriod(now)}}, &mockProofConsumer{}, now)

	_, err := svc.Pay(context.Background(), 1, PayTuitionRequest{ProofToken: "expired"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrPaymentProofRequired))

	item := repo.items[cartKey{1, 7}]
	assert.Equal(t, models.StatusSelected, item.Status)
}

func TestCartServicePayOutsideTuitionWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	period := openPeriod(now)
	period.DueDateStart = now.Add(48 * time.Hour)
	period.DueDateEnd = now.Add(96 * time.Hour)
	proofs := &mockProofConsumer{valid: map[string]bool{"tok": true}}
	svc := newCartService(&mockCartRepo{}, &mockCourseRepo{}, &mockPeriodReader{periods: []models.RegistrationPeriod{period}}, proofs, now)

	_, err := svc.Pay(context.Background(), 1, PayTuitionRequest{ProofToken: "tok"})
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrOutsideWindow))
}

func TestCartServicePayNothingPending(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	proofs := &mockProofConsumer{valid: map[string]bool{"tok": true}}
	svc := newCartService(&mockCartRepo{}, &mockCourseRepo{}, &mockPeriodReader{periods: []models.RegistrationPeriod{openPeriod(now)}}, proofs, now)

	result, err := svc.Pay(context.Background(), 1, PayTuitionRequest{ProofToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.PaidCount)
	assert.Equal(t, int64(0), result.Total)
}

func TestCartServiceFilterStrict(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	period := openPeriod(now)
	repo := &mockCartRepo{items: map[cartKey]models.CartItem{
		{1, 7}: {ID: "old", UserID: 1, CourseID: 7, Status: models.StatusSelected, Price: 100, CreatedAt: now.Add(-30 * 24 * time.Hour)},
		{1, 8}: {ID: "cur", UserID: 1, CourseID: 8, Status: models.StatusSelected, Price: 200, CreatedAt: now},
	}}
	svc := newCartService(repo, &mockCourseRepo{}, &mockPeriodReader{periods: []models.RegistrationPeriod{period}}, &mockProofConsumer{}, now)

	items, err := svc.Filter(context.Background(), 1, "PENDING", true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "cur", items[0].ID)
	assert.Equal(t, "chờ thanh toán", items[0].StatusLabel)

	loose, err := svc.Filter(context.Background(), 1, "chờ thanh toán", false)
	require.NoError(t, err)
	assert.Len(t, loose, 2)
}

func TestCartServiceFilterStrictNoRelevantPeriod(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := &mockCartRepo{items: map[cartKey]models.CartItem{
		{1, 7}: {ID: "i1", UserID: 1, CourseID: 7, Status: models.StatusSelected, Price: 100, CreatedAt: now},
	}}
	svc := newCartService(repo, &mockCourseRepo{}, &mockPeriodReader{}, &mockProofConsumer{}, now)

	items, err := svc.Filter(context.Background(), 1, "PENDING", true)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCartServiceFilterUnknownStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := newCartService(&mockCartRepo{}, &mockCourseRepo{}, &mockPeriodReader{}, &mockProofConsumer{}, now)

	_, err := svc.Filter(context.Background(), 1, "BOGUS", false)
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}
