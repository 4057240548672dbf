package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cinehub/booking-engine/internal/domain"
)

type PostgresSeatRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSeatRepository(db *pgxpool.Pool) *PostgresSeatRepository {
	return &PostgresSeatRepository{
		db: db,
	}
}

func (p *PostgresSeatRepository) EnsureShowtimeSeats(ctx context.Context, showtimeID int) error {
	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM showtime_seats WHERE showtime_id = $1)`

	err := p.db.QueryRow(ctx, query, showtimeID).Scan(&exists)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	var showtimeExists bool

	query = `SELECT EXISTS (SELECT 1 FROM showtimes WHERE id = $1)`

	err = p.db.QueryRow(ctx, query, showtimeID).Scan(&showtimeExists)
	if err != nil {
		return err
	}

	if !showtimeExists {
		return domain.ErrRecordNotFound
	}

	// Concurrent first requests race to materialize the snapshot; the
	// unique constraint plus ON CONFLICT makes the losers a no-op.
	query = `
		INSERT INTO showtime_seats (showtime_id, seat_id, effective_price, status)
		SELECT sh.id, s.id, ROUND(sh.base_price * st.price_multiplier, 2), 'Available'
		FROM showtimes sh
		JOIN seats s ON s.auditorium_id = sh.auditorium_id AND s.active
		JOIN seat_types st ON s.seat_type_id = st.id
		WHERE sh.id = $1
		ON CONFLICT (showtime_id, seat_id) DO NOTHING
	`

	_, err = p.db.Exec(ctx, query, showtimeID)

	return err
}

func (p *PostgresSeatRepository) GetSeatMap(
	ctx context.Context,
	showtimeID int,
	actor domain.Actor) ([]domain.SeatView, error) {

	// Holds past their deadline render as available even before the sweeper
	// has flipped them, so the view never shows a stale block.
	query := `
		SELECT
			s.id,
			s.row_label,
			s.seat_number,
			st.name,
			ss.effective_price,
			ss.status,
			h.actor_id,
			h.expires_at > NOW() AS hold_live
		FROM showtime_seats ss
		JOIN seats s ON ss.seat_id = s.id
		JOIN seat_types st ON s.seat_type_id = st.id
		LEFT JOIN seat_holds h
			ON h.showtime_id = ss.showtime_id
			AND h.seat_id = ss.seat_id
			AND h.status = 'Held'
		WHERE ss.showtime_id = $1
		ORDER BY LENGTH(s.row_label), s.row_label, s.seat_number
	`

	rows, err := p.db.Query(ctx, query, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seatViews := make([]domain.SeatView, 0)

	for rows.Next() {
		var (
			view      domain.SeatView
			status    domain.SeatStatus
			holdActor *string
			holdLive  *bool
		)

		err = rows.Scan(
			&view.SeatID,
			&view.RowLabel,
			&view.SeatNumber,
			&view.SeatType,
			&view.Price,
			&status,
			&holdActor,
			&holdLive,
		)
		if err != nil {
			return nil, err
		}

		seat := domain.Seat{
			RowLabel:   view.RowLabel,
			SeatNumber: view.SeatNumber,
			SeatType:   view.SeatType,
		}
		view.CouplePairID = seat.CouplePairID()
		view.Status = resolveSeatViewStatus(status, holdActor, holdLive, actor)

		seatViews = append(seatViews, view)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seatViews, nil
}

func resolveSeatViewStatus(
	status domain.SeatStatus,
	holdActor *string,
	holdLive *bool,
	actor domain.Actor) domain.SeatViewStatus {

	if status == domain.SeatStatusBooked {
		return domain.SeatViewBooked
	}

	if holdActor != nil && holdLive != nil && *holdLive {
		if *holdActor == actor.ID {
			return domain.SeatViewHeldByYou
		}

		return domain.SeatViewHeldByOther
	}

	return domain.SeatViewAvailable
}
