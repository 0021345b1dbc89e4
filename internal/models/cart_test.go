package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCartStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want CartStatus
		ok   bool
	}{
		{"SELECTED", StatusSelected, true},
		{"confirmed", StatusConfirmed, true},
		{"PENDING", StatusSelected, true},
		{"paid", StatusPaid, true},
		{"đã thanh toán", StatusPaid, true},
		{"chờ thanh toán", StatusSelected, true},
		{"đã hủy", StatusCancelled, true},
		{"CANCELLED", StatusCancelled, true},
		{"  Paid  ", StatusPaid, true},
		{"REFUNDED", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseCartStatus(tc.raw)
		assert.Equal(t, tc.ok, ok, "input %q", tc.raw)
		assert.Equal(t, tc.want, got, "input %q", tc.raw)
	}
}

func TestCartStatusIsPending(t *testing.T) {
	assert.True(t, StatusSelected.IsPending())
	assert.True(t, StatusConfirmed.IsPending())
	assert.False(t, StatusPaid.IsPending())
	assert.False(t, StatusCancelled.IsPending())
}

func TestFormatVND(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{0, "0"},
		{100, "100"},
		{1000, "1.000"},
		{100000, "100.000"},
		{1100000, "1.100.000"},
		{1234567890, "1.234.567.890"},
		{-50000, "-50.000"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatVND(tc.amount))
	}
}
