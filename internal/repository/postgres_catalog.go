package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cinehub/booking-engine/internal/domain"
)

type PostgresCatalogRepository struct {
	db *pgxpool.Pool
}

func NewPostgresCatalogRepository(db *pgxpool.Pool) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{
		db: db,
	}
}

func (p *PostgresCatalogRepository) GetShowtime(ctx context.Context, showtimeID int) (*domain.Showtime, error) {
	query := `
		SELECT id, movie_title, auditorium_id, starts_at, base_price
		FROM showtimes
		WHERE id = $1
	`

	var showtime domain.Showtime

	err := p.db.QueryRow(ctx, query, showtimeID).Scan(
		&showtime.ID,
		&showtime.MovieTitle,
		&showtime.AuditoriumID,
		&showtime.StartsAt,
		&showtime.BasePrice,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &showtime, nil
}

func (p *PostgresCatalogRepository) ListCombos(ctx context.Context) ([]domain.Combo, error) {
	query := `
		SELECT id, name, unit_price, active
		FROM combos
		WHERE active = TRUE
		ORDER BY id
	`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	combos := make([]domain.Combo, 0)

	for rows.Next() {
		var combo domain.Combo

		err = rows.Scan(&combo.ID, &combo.Name, &combo.UnitPrice, &combo.Active)
		if err != nil {
			return nil, err
		}

		combos = append(combos, combo)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return combos, nil
}
