package ops

import (
	"context"
	"errors"
	"fmt"
)

// BranchCapacity is the fixed seating capacity of every NovaBite branch.
const BranchCapacity = 20

// confirmationBase seeds booking confirmation ids: NB-1001, NB-1002, ...
const confirmationBase = 1001

var (
	ErrUnknownBranch = errors.New("branch not found")
	ErrNoAccount     = errors.New("loyalty account not found")
	ErrInvalidParty  = errors.New("party size must be positive")
)

// CapacityError reports a booking rejected for lack of seats. The ledger is
// left unmodified when this is returned.
type CapacityError struct {
	Requested int
	Remaining int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("not enough seats: requested %d, remaining %d", e.Requested, e.Remaining)
}

// Availability is the remaining capacity at a (branch, date, time) slot.
type Availability struct {
	Branch    string
	Date      string
	Time      string
	Remaining int
}

type BookingRequest struct {
	Name      string
	Date      string
	Time      string
	Branch    string
	PartySize int
}

// Booking is an immutable confirmation record.
type Booking struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Branch    string `json:"branch"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	PartySize int    `json:"party_size"`
}

type Special struct {
	Branch  string
	Starter string
	Main    string
	Dessert string
}

type Account struct {
	ID     string
	Name   string
	Points int
	Tier   string
}

// Store is the repository contract behind the four operations. Implementations
// must keep the booking check-then-increment atomic.
type Store interface {
	Availability(ctx context.Context, date, timeSlot, branch string) (Availability, error)
	Book(ctx context.Context, req BookingRequest) (Booking, error)
	Special(ctx context.Context, branch string) (Special, error)
	Loyalty(ctx context.Context, userID string) (Account, error)
}
