package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/lamdn/course-registration-api/internal/models"
)

// CartRepository handles persistence of cart items (legacy table name:
// class_members). At most one row exists per (user_id, course_id).
type CartRepository struct {
	db *sqlx.DB
}

// NewCartRepository constructs the repository.
func NewCartRepository(db *sqlx.DB) *CartRepository {
	return &CartRepository{db: db}
}

const cartDetailColumns = `cm.id, cm.user_id, cm.course_id, cm.status, cm.price, cm.created_at, cm.updated_at, cm.paid_at,
        c.subject_name, c.price AS course_price`

// ListMine returns the caller's cart joined with course display fields.
func (r *CartRepository) ListMine(ctx context.Context, userID int64) ([]models.CartItemDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_members cm
        JOIN courses c ON c.id = cm.course_id
        WHERE cm.user_id = $1
        ORDER BY cm.created_at`, cartDetailColumns)
	var items []models.CartItemDetail
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return items, nil
}

// Find returns the cart item for a (user, course) pair, sql.ErrNoRows when
// the pair is absent.
func (r *CartRepository) Find(ctx context.Context, userID, courseID int64) (*models.CartItem, error) {
	const query = `SELECT id, user_id, course_id, status, price, created_at, updated_at, paid_at
        FROM class_members WHERE user_id = $1 AND course_id = $2`
	var item models.CartItem
	if err := r.db.GetContext(ctx, &item, query, userID, courseID); err != nil {
		return nil, err
	}
	return &item, nil
}

// Insert persists a new cart item.
func (r *CartRepository) Insert(ctx context.Context, item *models.CartItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	if item.Status == "" {
		item.Status = models.StatusSelected
	}

	const query = `INSERT INTO class_members (id, user_id, course_id, status, price, created_at, updated_at)
        VALUES (:id, :user_id, :course_id, :status, :price, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("insert cart item: %w", err)
	}
	return nil
}

// Delete removes a cart item. Removal is a hard delete; no tombstone is
// kept for items that never reached PAID.
func (r *CartRepository) Delete(ctx context.Context, userID, courseID int64) error {
	const query = `DELETE FROM class_members WHERE user_id = $1 AND course_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, courseID); err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	return nil
}

// ListByStatus returns the caller's items with the given status regardless
// of period context (non-strict filter). SELECTED and CONFIRMED are both
// matched when the caller filters on a pending status.
func (r *CartRepository) ListByStatus(ctx context.Context, userID int64, status models.CartStatus) ([]models.CartItemDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_members cm
        JOIN courses c ON c.id = cm.course_id
        WHERE cm.user_id = $1 AND cm.status = ANY($2)
        ORDER BY cm.created_at`, cartDetailColumns)
	var items []models.CartItemDetail
	if err := r.db.SelectContext(ctx, &items, query, userID, statusSet(status)); err != nil {
		return nil, fmt.Errorf("filter cart: %w", err)
	}
	return items, nil
}

// ListByStatusInRange is the strict variant: items must additionally have
// been created inside [from, to], correlating them to the currently
// relevant period so stale rows from closed periods stay hidden.
func (r *CartRepository) ListByStatusInRange(ctx context.Context, userID int64, status models.CartStatus, from, to time.Time) ([]models.CartItemDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_members cm
        JOIN courses c ON c.id = cm.course_id
        WHERE cm.user_id = $1 AND cm.status = ANY($2) AND cm.created_at >= $3 AND cm.created_at <= $4
        ORDER BY cm.created_at`, cartDetailColumns)
	var items []models.CartItemDetail
	if err := r.db.SelectContext(ctx, &items, query, userID, statusSet(status), from, to); err != nil {
		return nil, fmt.Errorf("filter cart strict: %w", err)
	}
	return items, nil
}

// ConfirmSelected transitions the caller's SELECTED items to CONFIRMED and
// returns the number of rows touched. Calling it with nothing selected is a
// no-op, which makes the save action idempotent.
func (r *CartRepository) ConfirmSelected(ctx context.Context, userID int64) (int64, error) {
	const query = `UPDATE class_members SET status = $2, updated_at = $3
        WHERE user_id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, userID, models.StatusConfirmed, time.Now().UTC(), models.StatusSelected)
	if err != nil {
		return 0, fmt.Errorf("confirm selection: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("confirm selection result: %w", err)
	}
	return affected, nil
}

// PayPending bulk-transitions every pending item of one user to PAID inside
// a transaction. Rows are locked first so two devices paying at once cannot
// double-apply; the second transaction observes zero pending rows. Returns
// the number of items paid and their summed price.
func (r *CartRepository) PayPending(ctx context.Context, userID int64, paidAt time.Time) (int64, int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin pay tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var pending []models.CartItem
	const lockQuery = `SELECT id, user_id, course_id, status, price, created_at, updated_at, paid_at
        FROM class_members WHERE user_id = $1 AND status = ANY($2) FOR UPDATE`
	if err = tx.SelectContext(ctx, &pending, lockQuery, userID, pendingStatuses()); err != nil {
		return 0, 0, fmt.Errorf("lock pending items: %w", err)
	}
	if len(pending) == 0 {
		if err = tx.Commit(); err != nil {
			return 0, 0, fmt.Errorf("commit empty pay tx: %w", err)
		}
		return 0, 0, nil
	}

	var total int64
	for _, item := range pending {
		total += item.Price
	}

	const payQuery = `UPDATE class_members SET status = $2, paid_at = $3, updated_at = $3
        WHERE user_id = $1 AND status = ANY($4)`
	if _, err = tx.ExecContext(ctx, payQuery, userID, models.StatusPaid, paidAt, pendingStatuses()); err != nil {
		return 0, 0, fmt.Errorf("pay pending items: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit pay tx: %w", err)
	}
	return int64(len(pending)), total, nil
}

// ListPaid returns every PAID record across users (admin view).
func (r *CartRepository) ListPaid(ctx context.Context) ([]models.CartItemDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_members cm
        JOIN courses c ON c.id = cm.course_id
        WHERE cm.status = $1
        ORDER BY cm.paid_at DESC NULLS LAST, cm.created_at`, cartDetailColumns)
	var items []models.CartItemDetail
	if err := r.db.SelectContext(ctx, &items, query, models.StatusPaid); err != nil {
		return nil, fmt.Errorf("list paid records: %w", err)
	}
	return items, nil
}

// ListAllAdmin returns every cart record across users (admin view).
func (r *CartRepository) ListAllAdmin(ctx context.Context) ([]models.CartItemDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM class_members cm
        JOIN courses c ON c.id = cm.course_id
        ORDER BY cm.created_at DESC`, cartDetailColumns)
	var items []models.CartItemDetail
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list all cart records: %w", err)
	}
	return items, nil
}

// ListRoster returns the students registered for a course.
func (r *CartRepository) ListRoster(ctx context.Context, courseID int64) ([]models.RosterEntry, error) {
	const query = `SELECT cm.user_id, u.full_name, u.email, cm.status, cm.created_at
        FROM class_members cm
        JOIN users u ON u.id = cm.user_id
        WHERE cm.course_id = $1
        ORDER BY u.full_name`
	var roster []models.RosterEntry
	if err := r.db.SelectContext(ctx, &roster, query, courseID); err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return roster, nil
}

// EarliestCreatedAt returns the caller's first cart activity, nil when the
// cart has always been empty.
func (r *CartRepository) EarliestCreatedAt(ctx context.Context, userID int64) (*time.Time, error) {
	const query = `SELECT MIN(created_at) FROM class_members WHERE user_id = $1`
	var earliest *time.Time
	if err := r.db.GetContext(ctx, &earliest, query, userID); err != nil {
		return nil, fmt.Errorf("earliest cart activity: %w", err)
	}
	return earliest, nil
}

// statusSet expands a queried status into the stored values it covers:
// pending statuses are interchangeable on the wire, so filtering on either
// returns both.
func statusSet(status models.CartStatus) pq.StringArray {
	if status.IsPending() {
		return pendingStatuses()
	}
	return pq.StringArray{string(status)}
}

func pendingStatuses() pq.StringArray {
	return pq.StringArray{string(models.StatusSelected), string(models.StatusConfirmed)}
}
