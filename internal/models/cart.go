package models

import (
	"fmt"
	"strings"
	"time"
)

// CartStatus is the closed set of cart item states. SELECTED and CONFIRMED
// both travel as the legacy "PENDING" value on the wire; the split exists so
// saveRegisterCourses has an observable effect.
type CartStatus string

const (
	StatusSelected  CartStatus = "SELECTED"
	StatusConfirmed CartStatus = "CONFIRMED"
	StatusPaid      CartStatus = "PAID"
	StatusCancelled CartStatus = "CANCELLED"
)

// IsPending reports whether the status still owes tuition.
func (s CartStatus) IsPending() bool {
	return s == StatusSelected || s == StatusConfirmed
}

// LegacyLabel returns the Vietnamese display string older clients expect.
func (s CartStatus) LegacyLabel() string {
	switch s {
	case StatusSelected, StatusConfirmed:
		return "chờ thanh toán"
	case StatusPaid:
		return "đã thanh toán"
	case StatusCancelled:
		return "đã hủy"
	default:
		return string(s)
	}
}

// ParseCartStatus translates wire status values, including legacy English
// and Vietnamese forms, into the closed enum. This is the single place the
// wire format is interpreted; internal logic never matches display strings.
func ParseCartStatus(raw string) (CartStatus, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SELECTED":
		return StatusSelected, true
	case "CONFIRMED":
		return StatusConfirmed, true
	case "PENDING", "CHỜ THANH TOÁN":
		// Legacy pending covers both pre- and post-save items; callers that
		// need the split ask for SELECTED or CONFIRMED explicitly.
		return StatusSelected, true
	case "PAID", "ĐÃ THANH TOÁN":
		return StatusPaid, true
	case "CANCELLED", "ĐÃ HỦY":
		return StatusCancelled, true
	default:
		return "", false
	}
}

// CartItem is one course selection in a student's cart (legacy name:
// ClassMember). Price is a VND snapshot taken when the course was added.
type CartItem struct {
	ID        string     `db:"id" json:"id"`
	UserID    int64      `db:"user_id" json:"user_id"`
	CourseID  int64      `db:"course_id" json:"course_id"`
	Status    CartStatus `db:"status" json:"status"`
	Price     int64      `db:"price" json:"price"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	PaidAt    *time.Time `db:"paid_at" json:"paid_at,omitempty"`
}

// CartItemDetail augments a cart item with course display fields.
type CartItemDetail struct {
	CartItem
	SubjectName  string `db:"subject_name" json:"subject_name"`
	CoursePrice  int64  `db:"course_price" json:"course_price"`
	StatusLabel  string `db:"-" json:"status_label"`
	PriceDisplay string `db:"-" json:"price_display"`
}

// Decorate fills the derived display fields.
func (d *CartItemDetail) Decorate() {
	d.StatusLabel = d.Status.LegacyLabel()
	d.PriceDisplay = FormatVND(d.Price)
}

// CartSnapshot is the cart view returned to students: items plus the
// running total over pending items. Completed flips when every item is
// PAID; clients render the terminal view and hide the total.
type CartSnapshot struct {
	Items        []CartItemDetail `json:"items"`
	Total        int64            `json:"total"`
	TotalDisplay string           `json:"total_display"`
	Completed    bool             `json:"completed"`
}

// RosterEntry is one student row in a course roster.
type RosterEntry struct {
	UserID    int64      `db:"user_id" json:"user_id"`
	FullName  string     `db:"full_name" json:"full_name"`
	Email     string     `db:"email" json:"email"`
	Status    CartStatus `db:"status" json:"status"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// FormatVND renders an amount with dotted thousand separators, the way the
// mobile clients display tuition (1100000 -> "1.100.000").
func FormatVND(amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if negative {
		return "-" + b.String()
	}
	return b.String()
}
