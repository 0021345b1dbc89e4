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

type periodStore interface {
	ListAll(ctx context.Context) ([]models.RegistrationPeriod, error)
	FindByID(ctx context.Context, id string) (*models.RegistrationPeriod, error)
	ExistsByWindow(ctx context.Context, year, semester int, begin, end time.Time) (bool, error)
	FindByOriginalWindow(ctx context.Context, begin, end time.Time) (*models.RegistrationPeriod, error)
	Create(ctx context.Context, period *models.RegistrationPeriod) error
	UpdateWindow(ctx context.Context, id string, originalBegin, originalEnd time.Time, updated models.RegistrationPeriod) (bool, error)
	CourseBreakdown(ctx context.Context, begin, end time.Time) ([]models.PeriodCourseBreakdown, error)
}

type cartActivityReader interface {
	EarliestCreatedAt(ctx context.Context, userID int64) (*time.Time, error)
}

type periodCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type cacheObserver interface {
	RecordCacheOperation(hit bool)
}

const periodListCacheKey = "periods:all"

// CreatePeriodRequest is the admin payload for creating a period. Dates
// arrive as YYYY-MM-DD strings, matching what the mobile clients send.
type CreatePeriodRequest struct {
	Year          int    `json:"year" validate:"required,gte=2000"`
	Semester      int    `json:"semester" validate:"required,gte=1,lte=3"`
	BeginRegister string `json:"begin_register" validate:"required"`
	EndRegister   string `json:"end_register" validate:"required"`
	DueDateStart  string `json:"due_date_start" validate:"required"`
	DueDateEnd    string `json:"due_date_end" validate:"required"`
}

// CreatePeriodResult distinguishes a fresh creation from the soft
// "already exists" outcome, which is a notice rather than an error.
type CreatePeriodResult struct {
	Period        *models.RegistrationPeriod `json:"period,omitempty"`
	AlreadyExists bool                       `json:"already_exists"`
	Message       string                     `json:"message"`
}

// UpdateRegisterTimeRequest is the legacy edit contract: the period is
// addressed by its pre-edit begin/end values, captured when the edit UI was
// opened, not by an opaque ID.
type UpdateRegisterTimeRequest struct {
	Begin    string `json:"begin" validate:"required"`
	End      string `json:"end" validate:"required"`
	NewBegin string `json:"newBegin" validate:"required"`
	NewEnd   string `json:"newEnd" validate:"required"`
}

// PeriodService manages registration periods: admin creation and window
// edits, plus the cached, deduplicated read projection.
type PeriodService struct {
	repo      periodStore
	carts     cartActivityReader
	cache     periodCache
	cacheTTL  time.Duration
	metrics   cacheObserver
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// WithMetrics attaches a cache hit/miss observer.
func (s *PeriodService) WithMetrics(metrics cacheObserver) *PeriodService {
	s.metrics = metrics
	return s
}

// NewPeriodService constructs PeriodService.
func NewPeriodService(repo periodStore, carts cartActivityReader, cache periodCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &PeriodService{repo: repo, carts: carts, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List returns the deduplicated period projection, cache-aside. Raw rows
// sharing a registration window collapse to one logical entry before any
// client sees them.
func (s *PeriodService) List(ctx context.Context) ([]models.RegistrationPeriod, error) {
	if s.cache != nil {
		var cached []models.RegistrationPeriod
		if err := s.cache.Get(ctx, periodListCacheKey, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheOperation(true)
			}
			return cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(false)
		}
	}

	periods, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}
	deduped := DedupByWindow(periods)

	if s.cache != nil {
		if err := s.cache.Set(ctx, periodListCacheKey, deduped, s.cacheTTL); err != nil {
			s.logger.Warn("period cache write failed", zap.Error(err))
		}
	}
	return deduped, nil
}

// ListRaw returns every stored row without the dedup projection. The
// resolver gates and strict filters work on raw store order.
func (s *PeriodService) ListRaw(ctx context.Context) ([]models.RegistrationPeriod, error) {
	periods, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}
	return periods, nil
}

// ListAll satisfies the cart service's periodReader.
func (s *PeriodService) ListAll(ctx context.Context) ([]models.RegistrationPeriod, error) {
	return s.ListRaw(ctx)
}

// Create registers a new period for every student. A duplicate window for
// the same year/semester is a soft outcome: the response carries a notice
// message and no error, and the store keeps exactly one row for the tuple.
func (s *PeriodService) Create(ctx context.Context, req CreatePeriodRequest) (*CreatePeriodResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}

	begin, err := parseWireDate(req.BeginRegister)
	if err != nil {
		return nil, err
	}
	end, err := parseWireDate(req.EndRegister)
	if err != nil {
		return nil, err
	}
	dueStart, err := parseWireDate(req.DueDateStart)
	if err != nil {
		return nil, err
	}
	dueEnd, err := parseWireDate(req.DueDateEnd)
	if err != nil {
		return nil, err
	}

	if end.Before(begin) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_register precedes begin_register")
	}
	if dueEnd.Before(dueStart) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "due_date_end precedes due_date_start")
	}

	exists, err := s.repo.ExistsByWindow(ctx, req.Year, req.Semester, begin, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check period")
	}
	if exists {
		return &CreatePeriodResult{AlreadyExists: true, Message: "Đợt đăng ký đã tồn tại"}, nil
	}

	period := &models.RegistrationPeriod{
		Year:          req.Year,
		Semester:      req.Semester,
		BeginRegister: begin,
		EndRegister:   end,
		DueDateStart:  dueStart,
		DueDateEnd:    dueEnd,
	}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create period")
	}
	s.invalidateCache(ctx)
	s.logger.Info("registration period created", zap.String("period_id", period.ID), zap.Int("year", period.Year), zap.Int("semester", period.Semester))
	return &CreatePeriodResult{Period: period, Message: "Tạo đợt đăng ký thành công"}, nil
}

// UpdateRegisterTime edits a period's dates. The wire contract matches by
// the original begin/end values; identity is resolved once to a period ID,
// then the update runs as a compare-and-swap so a concurrent edit surfaces
// as PERIOD_CHANGED instead of corrupting another period. Expired periods
// are read-only.
func (s *PeriodService) UpdateRegisterTime(ctx context.Context, req UpdateRegisterTimeRequest) (*models.RegistrationPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	origBegin, err := parseWireDate(req.Begin)
	if err != nil {
		return nil, err
	}
	origEnd, err := parseWireDate(req.End)
	if err != nil {
		return nil, err
	}
	newBegin, err := parseWireDate(req.NewBegin)
	if err != nil {
		return nil, err
	}
	newEnd, err := parseWireDate(req.NewEnd)
	if err != nil {
		return nil, err
	}
	if newEnd.Before(newBegin) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "newEnd precedes newBegin")
	}

	period, err := s.repo.FindByOriginalWindow(ctx, origBegin, origEnd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrPeriodChanged, "no period matches the original dates")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve period")
	}
	if !period.Editable(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "period already expired")
	}

	// Only the registration window changes. Tuition due dates are a separate
	// admin decision and stay as stored.
	updated := *period
	updated.BeginRegister = newBegin
	updated.EndRegister = newEnd

	ok, err := s.repo.UpdateWindow(ctx, period.ID, origBegin, origEnd, updated)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update period")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrPeriodChanged, "period changed, re-fetch and retry")
	}
	s.invalidateCache(ctx)
	s.logger.Info("registration period updated", zap.String("period_id", period.ID))
	return &updated, nil
}

// Detail returns one period with its per-course enrollment breakdown.
func (s *PeriodService) Detail(ctx context.Context, id string) (*models.PeriodDetail, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	courses, err := s.repo.CourseBreakdown(ctx, period.BeginRegister, period.DueDateEnd)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period breakdown")
	}
	return &models.PeriodDetail{RegistrationPeriod: *period, Courses: courses}, nil
}

// Mine returns the period the caller belongs to: the window containing
// their earliest cart activity, else the currently relevant period. Nil
// data with no error means "no registration info", which clients render as
// an empty state.
func (s *PeriodService) Mine(ctx context.Context, userID int64) (*models.RegistrationPeriod, error) {
	periods, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}

	earliest, err := s.carts.EarliestCreatedAt(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cart activity")
	}
	if earliest != nil {
		if p := CurrentRegistrationWindow(periods, *earliest); p != nil {
			return p, nil
		}
	}
	return RelevantPeriod(periods, s.now()), nil
}

func (s *PeriodService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, periodListCacheKey); err != nil {
		s.logger.Warn("period cache invalidation failed", zap.Error(err))
	}
}

// parseWireDate accepts the YYYY-MM-DD wire format and, for tolerance with
// older clients, full RFC3339 timestamps.
func parseWireDate(raw string) (time.Time, error) {
	if t, err := time.Parse(models.DateOnly, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "invalid date: "+raw)
}
