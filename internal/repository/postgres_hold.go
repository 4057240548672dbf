package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cinehub/booking-engine/internal/domain"
)

type PostgresHoldRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresHoldRepository(db *pgxpool.Pool, logger *slog.Logger) *PostgresHoldRepository {
	return &PostgresHoldRepository{
		db:     db,
		logger: logger,
	}
}

func (p *PostgresHoldRepository) HoldSeats(
	ctx context.Context,
	showtimeID int,
	seatIDs []int,
	actor domain.Actor,
	ttl time.Duration,
	replaceToken *uuid.UUID) (*domain.Hold, error) {

	var hold *domain.Hold

	err := runInTxRetry(ctx, p.db, p.logger, func(tx pgx.Tx) error {
		// Seat rows are always locked in ascending seat id order so two
		// competing holds cannot deadlock on each other.
		lockQuery := `
			SELECT seat_id, status
			FROM showtime_seats
			WHERE showtime_id = $1 AND seat_id = ANY($2)
			ORDER BY seat_id
			FOR UPDATE
		`

		rows, err := tx.Query(ctx, lockQuery, showtimeID, seatIDs)
		if err != nil {
			return err
		}

		statuses := make(map[int]domain.SeatStatus, len(seatIDs))
		for rows.Next() {
			var (
				seatID int
				status domain.SeatStatus
			)
			if err := rows.Scan(&seatID, &status); err != nil {
				rows.Close()
				return err
			}
			statuses[seatID] = status
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if len(statuses) != len(seatIDs) {
			return domain.ErrRecordNotFound
		}

		if replaceToken != nil {
			if err := releaseHoldRows(ctx, tx, *replaceToken, actor); err != nil {
				return err
			}
		}

		// Holds past their deadline lose their claim here even if the
		// sweeper has not flipped them yet.
		expireQuery := `
			UPDATE seat_holds
			SET status = 'Expired'
			WHERE showtime_id = $1 AND seat_id = ANY($2)
				AND status = 'Held' AND expires_at <= NOW()
		`

		if _, err := tx.Exec(ctx, expireQuery, showtimeID, seatIDs); err != nil {
			return err
		}

		// Any surviving live hold on a requested seat is a conflict,
		// including the actor's own: replacing a selection goes through
		// replaceToken, and a double-submitted request must not stack a
		// second hold on the same seat.
		conflictQuery := `
			SELECT seat_id
			FROM seat_holds
			WHERE showtime_id = $1 AND seat_id = ANY($2) AND status = 'Held'
			ORDER BY seat_id
		`

		conflictRows, err := tx.Query(ctx, conflictQuery, showtimeID, seatIDs)
		if err != nil {
			return err
		}

		unavailable := make([]int, 0)
		for conflictRows.Next() {
			var seatID int
			if err := conflictRows.Scan(&seatID); err != nil {
				conflictRows.Close()
				return err
			}
			unavailable = append(unavailable, seatID)
		}
		conflictRows.Close()
		if err := conflictRows.Err(); err != nil {
			return err
		}

		for _, seatID := range seatIDs {
			if statuses[seatID] == domain.SeatStatusBooked {
				unavailable = append(unavailable, seatID)
			}
		}

		if len(unavailable) > 0 {
			return &domain.SeatUnavailableError{SeatIDs: unavailable}
		}

		token := uuid.New()
		expiresAt := time.Now().Add(ttl)

		insertRows := make([][]any, 0, len(seatIDs))
		for _, seatID := range seatIDs {
			insertRows = append(insertRows, []any{
				token,
				showtimeID,
				seatID,
				actor.ID,
				actor.Staff,
				string(domain.HoldStatusHeld),
				expiresAt,
			})
		}

		_, err = tx.CopyFrom(
			ctx,
			pgx.Identifier{"seat_holds"},
			[]string{"token", "showtime_id", "seat_id", "actor_id", "staff", "status", "expires_at"},
			pgx.CopyFromRows(insertRows),
		)
		if err != nil {
			// The partial unique index backstops the conflict check; a
			// violation here is a lost seat race, not a server fault.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation &&
				pgErr.ConstraintName == "seat_holds_active_seat_idx" {
				return &domain.SeatUnavailableError{SeatIDs: seatIDs}
			}

			return err
		}

		markQuery := `
			UPDATE showtime_seats
			SET status = 'Held', version = version + 1
			WHERE showtime_id = $1 AND seat_id = ANY($2)
		`

		if _, err := tx.Exec(ctx, markQuery, showtimeID, seatIDs); err != nil {
			return err
		}

		hold = &domain.Hold{
			Token:     token,
			SeatIDs:   seatIDs,
			ExpiresAt: expiresAt,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return hold, nil
}

// ReleaseSeats releases the actor's live hold rows on the given seats and
// frees them. Only seats actually held by the actor change; the rest of the
// request is ignored, and a hold that keeps other seats simply shrinks.
func (p *PostgresHoldRepository) ReleaseSeats(ctx context.Context, showtimeID int, seatIDs []int, actor domain.Actor) error {
	return runInTxRetry(ctx, p.db, p.logger, func(tx pgx.Tx) error {
		lockQuery := `
			SELECT seat_id
			FROM showtime_seats
			WHERE showtime_id = $1 AND seat_id = ANY($2)
			ORDER BY seat_id
			FOR UPDATE
		`

		rows, err := tx.Query(ctx, lockQuery, showtimeID, seatIDs)
		if err != nil {
			return err
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		releaseQuery := `
			UPDATE seat_holds
			SET status = 'Released'
			WHERE showtime_id = $1 AND seat_id = ANY($2)
				AND actor_id = $3 AND status = 'Held'
			RETURNING seat_id
		`

		releasedRows, err := tx.Query(ctx, releaseQuery, showtimeID, seatIDs, actor.ID)
		if err != nil {
			return err
		}

		var released []int
		for releasedRows.Next() {
			var seatID int
			if err := releasedRows.Scan(&seatID); err != nil {
				releasedRows.Close()
				return err
			}
			released = append(released, seatID)
		}
		releasedRows.Close()
		if err := releasedRows.Err(); err != nil {
			return err
		}

		if len(released) == 0 {
			return nil
		}

		freeQuery := `
			UPDATE showtime_seats
			SET status = 'Available', version = version + 1
			WHERE showtime_id = $1 AND seat_id = ANY($2) AND status = 'Held'
		`

		_, err = tx.Exec(ctx, freeQuery, showtimeID, released)

		return err
	})
}

// releaseHoldRows flips the actor's live hold rows under token to Released
// and frees the seats they were pinning. Unknown tokens surface
// ErrHoldNotFound; tokens whose rows were already released or expired are a
// no-op.
func releaseHoldRows(ctx context.Context, tx pgx.Tx, token uuid.UUID, actor domain.Actor) error {
	query := `
		UPDATE seat_holds
		SET status = 'Released'
		WHERE token = $1 AND actor_id = $2 AND status = 'Held'
		RETURNING showtime_id, seat_id
	`

	rows, err := tx.Query(ctx, query, token, actor.ID)
	if err != nil {
		return err
	}

	var (
		showtimeID int
		seatIDs    []int
	)
	for rows.Next() {
		var seatID int
		if err := rows.Scan(&showtimeID, &seatID); err != nil {
			rows.Close()
			return err
		}
		seatIDs = append(seatIDs, seatID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if len(seatIDs) == 0 {
		var exists bool

		existsQuery := `SELECT EXISTS (SELECT 1 FROM seat_holds WHERE token = $1 AND actor_id = $2)`

		if err := tx.QueryRow(ctx, existsQuery, token, actor.ID).Scan(&exists); err != nil {
			return err
		}

		if !exists {
			return domain.ErrHoldNotFound
		}

		return nil
	}

	freeQuery := `
		UPDATE showtime_seats
		SET status = 'Available', version = version + 1
		WHERE showtime_id = $1 AND seat_id = ANY($2) AND status = 'Held'
	`

	_, err = tx.Exec(ctx, freeQuery, showtimeID, seatIDs)

	return err
}

func (p *PostgresHoldRepository) GetActiveHold(
	ctx context.Context,
	token uuid.UUID,
	actor domain.Actor) ([]domain.SeatHold, error) {

	query := `
		SELECT id, token, showtime_id, seat_id, actor_id, staff, status, expires_at, created_at
		FROM seat_holds
		WHERE token = $1 AND actor_id = $2 AND status = 'Held'
		ORDER BY seat_id
	`

	rows, err := p.db.Query(ctx, query, token, actor.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holds := make([]domain.SeatHold, 0)

	for rows.Next() {
		var hold domain.SeatHold

		err = rows.Scan(
			&hold.ID,
			&hold.Token,
			&hold.ShowtimeID,
			&hold.SeatID,
			&hold.ActorID,
			&hold.Staff,
			&hold.Status,
			&hold.ExpiresAt,
			&hold.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		holds = append(holds, hold)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(holds) == 0 {
		return nil, domain.ErrHoldNotFound
	}

	return holds, nil
}

func (p *PostgresHoldRepository) ExpireDueHolds(ctx context.Context, now time.Time) (int64, error) {
	var expired int64

	err := runInTx(ctx, p.db, func(tx pgx.Tx) error {
		// SKIP LOCKED keeps the sweeper from queueing behind settlements
		// that are deciding the fate of the same rows.
		dueQuery := `
			SELECT id, showtime_id, seat_id
			FROM seat_holds
			WHERE status = 'Held' AND expires_at <= $1
			ORDER BY id
			FOR UPDATE SKIP LOCKED
		`

		rows, err := tx.Query(ctx, dueQuery, now)
		if err != nil {
			return err
		}

		var (
			ids         []int64
			showtimeIDs []int
			seatIDs     []int
		)
		for rows.Next() {
			var (
				id         int64
				showtimeID int
				seatID     int
			)
			if err := rows.Scan(&id, &showtimeID, &seatID); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
			showtimeIDs = append(showtimeIDs, showtimeID)
			seatIDs = append(seatIDs, seatID)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		if len(ids) == 0 {
			return nil
		}

		expireQuery := `UPDATE seat_holds SET status = 'Expired' WHERE id = ANY($1)`

		tag, err := tx.Exec(ctx, expireQuery, ids)
		if err != nil {
			return err
		}
		expired = tag.RowsAffected()

		freeQuery := `
			UPDATE showtime_seats ss
			SET status = 'Available', version = ss.version + 1
			FROM (SELECT UNNEST($1::int[]) AS showtime_id, UNNEST($2::int[]) AS seat_id) d
			WHERE ss.showtime_id = d.showtime_id
				AND ss.seat_id = d.seat_id
				AND ss.status = 'Held'
		`

		_, err = tx.Exec(ctx, freeQuery, showtimeIDs, seatIDs)

		return err
	})
	if err != nil {
		return 0, err
	}

	return expired, nil
}
