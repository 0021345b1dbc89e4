package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/lamdn/course-registration-api/internal/models"
	appErrors "github.com/lamdn/course-registration-api/pkg/errors"
)

type cartStore interface {
	ListMine(ctx context.Context, userID int64) ([]models.CartItemDetail, error)
	Find(ctx context.Context, userID, courseID int64) (*models.CartItem, error)
	Insert(ctx context.Context, item *models.CartItem) error
	Delete(ctx context.Context, userID, courseID int64) error
	ListByStatus(ctx context.Context, userID int64, status models.CartStatus) ([]models.CartItemDetail, error)
	ListByStatusInRange(ctx context.Context, userID int64, status models.CartStatus, from, to time.Time) ([]models.CartItemDetail, error)
	ConfirmSelected(ctx context.Context, userID int64) (int64, error)
	PayPending(ctx context.Context, userID int64, paidAt time.Time) (int64, int64, error)
	ListPaid(ctx context.Context) ([]models.CartItemDetail, error)
	ListAllAdmin(ctx context.Context) ([]models.CartItemDetail, error)
	ListRoster(ctx context.Context, courseID int64) ([]models.RosterEntry, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	ListAvailable(ctx context.Context, userID int64) ([]models.Course, error)
}

type periodReader interface {
	ListAll(ctx context.Context) ([]models.RegistrationPeriod, error)
}

type proofConsumer interface {
	Consume(ctx context.Context, userID int64, token string) error
}

// AddCourseRequest is the payload for adding a course to the cart.
type AddCourseRequest struct {
	CourseID int64 `json:"course_id" validate:"required,gt=0"`
}

// RemoveCourseRequest is the payload for removing a course from the cart.
type RemoveCourseRequest struct {
	CourseID int64 `json:"course_id" validate:"required,gt=0"`
}

// PayTuitionRequest carries the payment-proof token obtained from the QR
// endpoint.
type PayTuitionRequest struct {
	ProofToken string `json:"proof_token" validate:"required"`
}

// PayTuitionResult reports the outcome of a bulk payment.
type PayTuitionResult struct {
	PaidCount    int64  `json:"paid_count"`
	Total        int64  `json:"total"`
	TotalDisplay string `json:"total_display"`
}

// CartService orchestrates the cart lifecycle: selection inside the
// registration window, confirmation, and bulk payment inside the tuition
// window.
type CartService struct {
	cart      cartStore
	courses   courseReader
	periods   periodReader
	proofs    proofConsumer
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCartService constructs CartService.
func NewCartService(cart cartStore, courses courseReader, periods periodReader, proofs proofConsumer, validate *validator.Validate, logger *zap.Logger) *CartService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{cart: cart, courses: courses, periods: periods, proofs: proofs, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// ListMine returns the caller's cart snapshot with the pending total.
func (s *CartService) ListMine(ctx context.Context, userID int64) (*models.CartSnapshot, error) {
	items, err := s.cart.ListMine(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cart")
	}
	return buildSnapshot(items), nil
}

// ListAvailable returns courses the caller may still select.
func (s *CartService) ListAvailable(ctx context.Context, userID int64) ([]models.Course, error) {
	courses, err := s.courses.ListAvailable(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list available courses")
	}
	return courses, nil
}

// Add puts a course into the caller's cart. The registration window is a
// hard precondition here, not a UI advisory: outside the window the call is
// rejected before any row is written.
func (s *CartService) Add(ctx context.Context, userID int64, req AddCourseRequest) (*models.CartItemDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid add payload")
	}

	periods, err := s.periods.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load periods")
	}
	if CurrentRegistrationWindow(periods, s.now()) == nil {
		return nil, appErrors.Clone(appErrors.ErrOutsideWindow, "outside registration window")
	}

	existing, err := s.cart.Find(ctx, userID, req.CourseID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check cart")
	}
	if existing != nil {
		if existing.Status == models.StatusPaid {
			return nil, appErrors.Clone(appErrors.ErrAlreadyPaid, "course already paid")
		}
		return nil, appErrors.Clone(appErrors.ErrConflict, "course already in cart")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	// Price is frozen at selection time; later catalog changes do not move
	// amounts already in a cart.
	item := &models.CartItem{
		UserID:   userID,
		CourseID: course.ID,
		Status:   models.StatusSelected,
		Price:    course.Price,
	}
	if err := s.cart.Insert(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add course")
	}

	detail := &models.CartItemDetail{CartItem: *item, SubjectName: course.SubjectName, CoursePrice: course.Price}
	detail.Decorate()
	s.logger.Info("course added to cart", zap.Int64("user_id", userID), zap.Int64("course_id", course.ID))
	return detail, nil
}

// Remove deletes a pending cart item. Removal has no window precondition so
// a student is never stranded with an unwanted selection; only PAID blocks.
func (s *CartService) Remove(ctx context.Context, userID int64, req RemoveCourseRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid remove payload")
	}

	existing, err := s.cart.Find(ctx, userID, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not in cart")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check cart")
	}
	if existing.Status == models.StatusPaid {
		return appErrors.Clone(appErrors.ErrAlreadyPaid, "paid items cannot be removed")
	}

	if err := s.cart.Delete(ctx, userID, req.CourseID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove course")
	}
	s.logger.Info("course removed from cart", zap.Int64("user_id", userID), zap.Int64("course_id", req.CourseID))
	return nil
}

// Save confirms the caller's current selection so the backend can finalize
// the aggregate tuition. Idempotent: with nothing newly selected it changes
// nothing and still returns the current snapshot.
func (s *CartService) Save(ctx context.Context, userID int64) (*models.CartSnapshot, error) {
	if _, err := s.cart.ConfirmSelected(ctx, userID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to confirm selection")
	}
	return s.ListMine(ctx, userID)
}

// Pay bulk-transitions every pending item of the caller to PAID. It
// requires a consumed payment-proof token and an open tuition window. With
// zero pending items it succeeds as a no-op and touches nothing.
func (s *CartService) Pay(ctx context.Context, userID int64, req PayTuitionRequest) (*PayTuitionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pay payload")
	}

	if err := s.proofs.Consume(ctx, userID, req.ProofToken); err != nil {
		return nil, err
	}

	periods, err := s.periods.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load periods")
	}
	if CurrentTuitionWindow(periods, s.now()) == nil {
		return nil, appErrors.Clone(appErrors.ErrOutsideWindow, "outside tuition window")
	}

	count, total, err := s.cart.PayPending(ctx, userID, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to pay tuition")
	}
	if count > 0 {
		s.logger.Info("tuition paid", zap.Int64("user_id", userID), zap.Int64("items", count), zap.Int64("total", total))
	}
	return &PayTuitionResult{PaidCount: count, Total: total, TotalDisplay: models.FormatVND(total)}, nil
}

// Filter returns the caller's items by status. The strict variant
// additionally correlates items to the currently relevant period through
// their creation time, hiding stale rows from closed periods; with no
// relevant period it returns an empty list.
func (s *CartService) Filter(ctx context.Context, userID int64, rawStatus string, strict bool) ([]models.CartItemDetail, error) {
	status, ok := models.ParseCartStatus(rawStatus)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status value")
	}

	var items []models.CartItemDetail
	var err error
	if strict {
		periods, perr := s.periods.ListAll(ctx)
		if perr != nil {
			return nil, appErrors.Wrap(perr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load periods")
		}
		relevant := RelevantPeriod(periods, s.now())
		if relevant == nil {
			return []models.CartItemDetail{}, nil
		}
		items, err = s.cart.ListByStatusInRange(ctx, userID, status, relevant.BeginRegister, relevant.DueDateEnd)
	} else {
		items, err = s.cart.ListByStatus(ctx, userID, status)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to filter cart")
	}
	decorate(items)
	return items, nil
}

// ListPaid returns all PAID records for administrators.
func (s *CartService) ListPaid(ctx context.Context) ([]models.CartItemDetail, error) {
	items, err := s.cart.ListPaid(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list paid records")
	}
	decorate(items)
	return items, nil
}

// ListAllAdmin returns every cart record for administrators.
func (s *CartService) ListAllAdmin(ctx context.Context) ([]models.CartItemDetail, error) {
	items, err := s.cart.ListAllAdmin(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cart records")
	}
	decorate(items)
	return items, nil
}

// ListRoster returns the registered students of a course.
func (s *CartService) ListRoster(ctx context.Context, courseID int64) ([]models.RosterEntry, error) {
	if courseID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid course id")
	}
	roster, err := s.cart.ListRoster(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roster")
	}
	return roster, nil
}

func buildSnapshot(items []models.CartItemDetail) *models.CartSnapshot {
	decorate(items)
	snapshot := &models.CartSnapshot{Items: items, Completed: len(items) > 0}
	for i := range items {
		if items[i].Status.IsPending() {
			snapshot.Total += items[i].Price
			snapshot.Completed = false
		} else if items[i].Status != models.StatusPaid {
			snapshot.Completed = false
		}
	}
	snapshot.TotalDisplay = models.FormatVND(snapshot.Total)
	return snapshot
}

func decorate(items []models.CartItemDetail) {
	for i := range items {
		items[i].Decorate()
	}
}
