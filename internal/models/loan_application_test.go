package models

import "testing"

func TestApplicationStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to ApplicationStatus
		want     bool
	}{
		{ApplicationStatusSubmitted, ApplicationStatusInReview, true},
		{ApplicationStatusSubmitted, ApplicationStatusApproved, false},
		{ApplicationStatusInReview, ApplicationStatusApproved, true},
		{ApplicationStatusInReview, ApplicationStatusRejected, true},
		{ApplicationStatusApproved, ApplicationStatusRejected, false},
		{ApplicationStatusRejected, ApplicationStatusInReview, false},
		{ApplicationStatusInReview, ApplicationStatusInReview, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}
