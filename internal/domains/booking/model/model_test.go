package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"roombook/internal/domains/booking/model"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{name: "pending to approved", from: model.StatusPending, to: model.StatusApproved, want: true},
		{name: "pending to rejected", from: model.StatusPending, to: model.StatusRejected, want: true},
		{name: "approved to rejected", from: model.StatusApproved, to: model.StatusRejected, want: true},
		{name: "approved to approved", from: model.StatusApproved, to: model.StatusApproved, want: false},
		{name: "approved to pending", from: model.StatusApproved, to: model.StatusPending, want: false},
		{name: "rejected is terminal", from: model.StatusRejected, to: model.StatusApproved, want: false},
		{name: "rejected to pending", from: model.StatusRejected, to: model.StatusPending, want: false},
		{name: "unknown status", from: "cancelled", to: model.StatusApproved, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, model.CanTransition(tt.from, tt.to))
		})
	}
}

func TestBooking_IsPending(t *testing.T) {
	booking := model.Booking{Status: model.StatusPending}
	assert.True(t, booking.IsPending())

	booking.Status = model.StatusApproved
	assert.False(t, booking.IsPending())
}

func TestBooking_IsOwnedBy(t *testing.T) {
	booking := model.Booking{RequesterID: "user-1"}

	assert.True(t, booking.IsOwnedBy("user-1"))
	assert.False(t, booking.IsOwnedBy("user-2"))
	assert.False(t, booking.IsOwnedBy(""))
}

func TestBooking_DurationHours(t *testing.T) {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want float64
	}{
		{name: "whole hours", end: start.Add(2 * time.Hour), want: 2},
		{name: "fractional hours", end: start.Add(90 * time.Minute), want: 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			booking := model.Booking{StartTime: start, EndTime: tt.end}
			assert.InDelta(t, tt.want, booking.DurationHours(), 0.0001)
		})
	}
}
