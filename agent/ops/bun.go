package ops

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// BunStore is the Postgres-backed variant of the operations repository,
// the swap target the in-memory store's interface was designed for. The
// booking check-then-increment runs inside a transaction with a row lock.
type BunStore struct {
	db *bun.DB
}

var _ Store = (*BunStore)(nil)

type BunConfig struct {
	DSN string `envconfig:"DSN" split_words:"true" required:"true"`
}

type reservationRow struct {
	bun.BaseModel `bun:"table:reservations,alias:r"`

	Branch string `bun:"branch,pk"`
	Date   string `bun:"date,pk"`
	Slot   string `bun:"slot,pk"`
	Seats  int    `bun:"seats,notnull,default:0"`
}

type bookingRow struct {
	bun.BaseModel `bun:"table:bookings,alias:b"`

	ID        string `bun:"id,pk"`
	Name      string `bun:"name,notnull"`
	Branch    string `bun:"branch,notnull"`
	Date      string `bun:"date,notnull"`
	Slot      string `bun:"slot,notnull"`
	PartySize int    `bun:"party_size,notnull"`
}

type specialRow struct {
	bun.BaseModel `bun:"table:specials,alias:s"`

	Branch  string `bun:"branch,pk"`
	Starter string `bun:"starter,notnull"`
	Main    string `bun:"main,notnull"`
	Dessert string `bun:"dessert,notnull"`
}

type loyaltyRow struct {
	bun.BaseModel `bun:"table:loyalty_accounts,alias:l"`

	ID     string `bun:"id,pk"`
	Name   string `bun:"name,notnull"`
	Points int    `bun:"points,notnull"`
	Tier   string `bun:"tier,notnull"`
}

func NewBunStore(cfg BunConfig) (*BunStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("ops store dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	return &BunStore{db: db}, nil
}

// Init creates the schema if needed and loads the seed data. Idempotent.
func (s *BunStore) Init(ctx context.Context) error {
	models := []any{
		(*reservationRow)(nil),
		(*bookingRow)(nil),
		(*specialRow)(nil),
		(*loyaltyRow)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}

	var reservations []reservationRow
	for branch, dates := range seedReservations() {
		for date, slots := range dates {
			for slot, seats := range slots {
				reservations = append(reservations, reservationRow{
					Branch: branch, Date: date, Slot: slot, Seats: seats,
				})
			}
		}
	}
	if _, err := s.db.NewInsert().Model(&reservations).Ignore().Exec(ctx); err != nil {
		return fmt.Errorf("seed reservations: %w", err)
	}

	var specials []specialRow
	for branch, sp := range seedSpecials() {
		specials = append(specials, specialRow{
			Branch: branch, Starter: sp.Starter, Main: sp.Main, Dessert: sp.Dessert,
		})
	}
	if _, err := s.db.NewInsert().Model(&specials).Ignore().Exec(ctx); err != nil {
		return fmt.Errorf("seed specials: %w", err)
	}

	var accounts []loyaltyRow
	for id, acc := range seedLoyalty() {
		accounts = append(accounts, loyaltyRow{
			ID: id, Name: acc.Name, Points: acc.Points, Tier: acc.Tier,
		})
	}
	if _, err := s.db.NewInsert().Model(&accounts).Ignore().Exec(ctx); err != nil {
		return fmt.Errorf("seed loyalty accounts: %w", err)
	}

	return nil
}

func (s *BunStore) Availability(ctx context.Context, date, timeSlot, branch string) (Availability, error) {
	key := normalizeBranch(branch)
	if !s.branchExists(ctx, key) {
		return Availability{}, fmt.Errorf("%w: %s", ErrUnknownBranch, branch)
	}

	committed, err := s.committedSeats(ctx, s.db, key, date, timeSlot)
	if err != nil {
		return Availability{}, err
	}

	return Availability{
		Branch:    key,
		Date:      date,
		Time:      timeSlot,
		Remaining: BranchCapacity - committed,
	}, nil
}

func (s *BunStore) Book(ctx context.Context, req BookingRequest) (Booking, error) {
	if req.PartySize <= 0 {
		return Booking{}, ErrInvalidParty
	}
	key := normalizeBranch(req.Branch)
	if !s.branchExists(ctx, key) {
		return Booking{}, fmt.Errorf("%w: %s", ErrUnknownBranch, req.Branch)
	}

	var booking Booking
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var row reservationRow
		err := tx.NewSelect().
			Model(&row).
			Where("r.branch = ? AND r.date = ? AND r.slot = ?", key, req.Date, req.Time).
			For("UPDATE").
			Scan(ctx)
		committed := 0
		switch {
		case err == nil:
			committed = row.Seats
		case errors.Is(err, sql.ErrNoRows):
			// slot unseen, nothing committed yet
		default:
			return fmt.Errorf("load reservation row: %w", err)
		}

		remaining := BranchCapacity - committed
		if remaining < req.PartySize {
			return &CapacityError{Requested: req.PartySize, Remaining: remaining}
		}

		updated := reservationRow{Branch: key, Date: req.Date, Slot: req.Time, Seats: committed + req.PartySize}
		if _, err := tx.NewInsert().
			Model(&updated).
			On("CONFLICT (branch, date, slot) DO UPDATE").
			Set("seats = EXCLUDED.seats").
			Exec(ctx); err != nil {
			return fmt.Errorf("commit seats: %w", err)
		}

		count, err := tx.NewSelect().Model((*bookingRow)(nil)).Count(ctx)
		if err != nil {
			return fmt.Errorf("count bookings: %w", err)
		}

		record := bookingRow{
			ID:        fmt.Sprintf("NB-%d", confirmationBase+count),
			Name:      req.Name,
			Branch:    key,
			Date:      req.Date,
			Slot:      req.Time,
			PartySize: req.PartySize,
		}
		if _, err := tx.NewInsert().Model(&record).Exec(ctx); err != nil {
			return fmt.Errorf("append booking record: %w", err)
		}

		booking = Booking{
			ID:        record.ID,
			Name:      record.Name,
			Branch:    record.Branch,
			Date:      record.Date,
			Time:      record.Slot,
			PartySize: record.PartySize,
		}
		return nil
	})
	if err != nil {
		return Booking{}, err
	}
	return booking, nil
}

func (s *BunStore) Special(ctx context.Context, branch string) (Special, error) {
	key := normalizeBranch(branch)

	var row specialRow
	err := s.db.NewSelect().Model(&row).Where("s.branch = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Special{}, fmt.Errorf("%w: %s", ErrUnknownBranch, branch)
	}
	if err != nil {
		return Special{}, fmt.Errorf("load special: %w", err)
	}

	return Special{Branch: row.Branch, Starter: row.Starter, Main: row.Main, Dessert: row.Dessert}, nil
}

func (s *BunStore) Loyalty(ctx context.Context, userID string) (Account, error) {
	key := strings.ToUpper(strings.TrimSpace(userID))

	var row loyaltyRow
	err := s.db.NewSelect().Model(&row).Where("l.id = ?", key).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, fmt.Errorf("%w: %s", ErrNoAccount, userID)
	}
	if err != nil {
		return Account{}, fmt.Errorf("load loyalty account: %w", err)
	}

	return Account{ID: row.ID, Name: row.Name, Points: row.Points, Tier: row.Tier}, nil
}

func (s *BunStore) branchExists(ctx context.Context, branch string) bool {
	for _, b := range BranchNames {
		if b == branch {
			return true
		}
	}
	return false
}

func (s *BunStore) committedSeats(ctx context.Context, db bun.IDB, branch, date, slot string) (int, error) {
	var row reservationRow
	err := db.NewSelect().
		Model(&row).
		Where("r.branch = ? AND r.date = ? AND r.slot = ?", branch, date, slot).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load reservation row: %w", err)
	}
	return row.Seats, nil
}
