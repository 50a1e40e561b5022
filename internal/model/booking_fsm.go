package model

import "handyhub/pkg/apperror"

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in-progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
)

// ActiveBookingStatuses block the worker's time window and the service's deletion
var ActiveBookingStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingInProgress}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingInProgress, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// ActorRole is the capacity in which someone acts on a booking
type ActorRole string

const (
	ActorCustomer ActorRole = "customer"
	ActorWorker   ActorRole = "worker"
	ActorAdmin    ActorRole = "admin"
	ActorGuest    ActorRole = "guest"
)

var bookingTransitions = map[ActorRole]map[BookingStatus][]BookingStatus{
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
}

// NextBookingStatus validates a requested transition for role and returns the new status
func NextBookingStatus(from BookingStatus, role ActorRole, to BookingStatus) (BookingStatus, error) {
	for _, allowed := range bookingTransitions[role][from] {
		if allowed == to {
			return to, nil
		}
	}
	return from, apperror.InvalidTransition(string(from), string(to))
}
