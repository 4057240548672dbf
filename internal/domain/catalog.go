package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Showtime is the read-only scheduling context a booking settles against.
// Scheduling itself is owned by another service; this module only reads it.
type Showtime struct {
	ID           int
	MovieTitle   string
	AuditoriumID int
	StartsAt     time.Time
	BasePrice    decimal.Decimal
}

// Combo is a concession bundle sold alongside tickets.
type Combo struct {
	ID        int
	Name      string
	UnitPrice decimal.Decimal
	Active    bool
}

type CatalogRepository interface {
	GetShowtime(ctx context.Context, showtimeID int) (*Showtime, error)

	// ListCombos returns the combos currently on sale.
	ListCombos(ctx context.Context) ([]Combo, error)
}
