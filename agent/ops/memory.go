package ops

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore keeps the reservation ledger, booking records, specials, and
// loyalty accounts in process memory. The mutex makes the booking
// check-then-increment atomic, so concurrent bookings cannot overbook a slot.
type MemoryStore struct {
	mu           sync.Mutex
	reservations map[string]map[string]map[string]int
	bookings     []Booking
	specials     map[string]Special
	loyalty      map[string]Account
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reservations: seedReservations(),
		specials:     seedSpecials(),
		loyalty:      seedLoyalty(),
	}
}

func (s *MemoryStore) Availability(_ context.Context, date, timeSlot, branch string) (Availability, error) {
	key := normalizeBranch(branch)

	s.mu.Lock()
	defer s.mu.Unlock()

	slots, ok := s.reservations[key]
	if !ok {
		return Availability{}, fmt.Errorf("%w: %s", ErrUnknownBranch, branch)
	}

	committed := slots[date][timeSlot]
	return Availability{
		Branch:    key,
		Date:      date,
		Time:      timeSlot,
		Remaining: BranchCapacity - committed,
	}, nil
}

func (s *MemoryStore) Book(_ context.Context, req BookingRequest) (Booking, error) {
	if req.PartySize <= 0 {
		return Booking{}, ErrInvalidParty
	}
	key := normalizeBranch(req.Branch)

	s.mu.Lock()
	defer s.mu.Unlock()

	slots, ok := s.reservations[key]
	if !ok {
		return Booking{}, fmt.Errorf("%w: %s", ErrUnknownBranch, req.Branch)
	}

	committed := slots[req.Date][req.Time]
	remaining := BranchCapacity - committed
	if remaining < req.PartySize {
		return Booking{}, &CapacityError{Requested: req.PartySize, Remaining: remaining}
	}

	if slots[req.Date] == nil {
		slots[req.Date] = make(map[string]int)
	}
	slots[req.Date][req.Time] += req.PartySize

	booking := Booking{
		ID:        fmt.Sprintf("NB-%d", confirmationBase+len(s.bookings)),
		Name:      req.Name,
		Branch:    key,
		Date:      req.Date,
		Time:      req.Time,
		PartySize: req.PartySize,
	}
	s.bookings = append(s.bookings, booking)
	return booking, nil
}

func (s *MemoryStore) Special(_ context.Context, branch string) (Special, error) {
	key := normalizeBranch(branch)

	s.mu.Lock()
	defer s.mu.Unlock()

	special, ok := s.specials[key]
	if !ok {
		return Special{}, fmt.Errorf("%w: %s", ErrUnknownBranch, branch)
	}
	return special, nil
}

func (s *MemoryStore) Loyalty(_ context.Context, userID string) (Account, error) {
	key := strings.ToUpper(strings.TrimSpace(userID))

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.loyalty[key]
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrNoAccount, userID)
	}
	return account, nil
}

// Bookings returns a copy of the append-only booking records.
func (s *MemoryStore) Bookings() []Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]Booking, len(s.bookings))
	copy(copied, s.bookings)
	return copied
}

func normalizeBranch(branch string) string {
	return strings.ToLower(strings.TrimSpace(branch))
}
