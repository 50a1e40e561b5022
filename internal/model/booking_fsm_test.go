package model

import (
	"errors"
	"testing"

	"handyhub/pkg/apperror"
)

var allStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingInProgress, BookingCompleted, BookingCancelled}

func TestNextBookingStatusFollowsRoleTable(t *testing.T) {
	allowed := map[ActorRole]map[BookingStatus][]BookingStatus{
		ActorWorker: {
			BookingPending:    {BookingConfirmed, BookingCancelled},
			BookingConfirmed:  {BookingInProgress, BookingCancelled},
			BookingInProgress: {BookingCompleted},
		},
		ActorCustomer: {
			BookingPending:   {BookingCancelled},
			BookingConfirmed: {BookingCancelled},
		},
		ActorAdmin: {
			BookingPending:    {BookingConfirmed, BookingCancelled},
			BookingConfirmed:  {BookingInProgress, BookingCompleted, BookingCancelled},
			BookingInProgress: {BookingCompleted, BookingCancelled},
		},
		ActorGuest: {},
	}

	for role, table := range allowed {
		for _, from := range allStatuses {
			for _, to := range allStatuses {
				want := false
				for _, s := range table[from] {
					if s == to {
						want = true
					}
				}

				got, err := NextBookingStatus(from, role, to)
				if want {
					if err != nil || got != to {
						t.Errorf("%s %s->%s: expected allowed, got %v (%v)", role, from, to, got, err)
					}
					continue
				}
				if err == nil {
					t.Errorf("%s %s->%s: expected rejection", role, from, to)
					continue
				}
				if got != from {
					t.Errorf("%s %s->%s: rejected transition must keep status, got %s", role, from, to, got)
				}
				if !errors.Is(err, apperror.ErrInvalidTransition) {
					t.Errorf("%s %s->%s: expected invalid transition, got %v", role, from, to, err)
				}
			}
		}
	}
}

func TestRepeatedTransitionFails(t *testing.T) {
	status, err := NextBookingStatus(BookingPending, ActorWorker, BookingConfirmed)
	if err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	if _, err := NextBookingStatus(status, ActorWorker, BookingConfirmed); err == nil {
		t.Fatal("confirming twice should fail")
	} else if err.Error() != "invalid status transition from confirmed to confirmed" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
