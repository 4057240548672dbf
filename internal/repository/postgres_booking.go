package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/cinehub/booking-engine/internal/domain"
)

type PostgresBookingRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresBookingRepository(db *pgxpool.Pool, logger *slog.Logger) *PostgresBookingRepository {
	return &PostgresBookingRepository{
		db:     db,
		logger: logger,
	}
}

func (p *PostgresBookingRepository) Settle(ctx context.Context, params domain.SettleParams) (*domain.Booking, error) {
	var booking *domain.Booking

	err := runInTxRetry(ctx, p.db, p.logger, func(tx pgx.Tx) error {
		holds, err := lockHoldRows(ctx, tx, params)
		if err != nil {
			return err
		}

		now := time.Now()
		for _, hold := range holds {
			if hold.ExpiredAt(now) {
				return domain.ErrHoldExpired
			}
		}

		seats, err := lockHeldSeats(ctx, tx, params.ShowtimeID, holds)
		if err != nil {
			return err
		}

		combos, err := loadComboLines(ctx, tx, params.Combos)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, seat := range seats {
			total = total.Add(seat.Price)
		}
		for _, combo := range combos {
			total = total.Add(combo.LineTotal)
		}

		discountFn := params.Discount
		if discountFn == nil {
			discountFn = domain.NoDiscount
		}

		discount := discountFn(total)
		if discount.IsNegative() {
			discount = decimal.Zero
		}
		if discount.GreaterThan(total) {
			discount = total
		}

		final := total.Sub(discount)

		booking = &domain.Booking{
			ShowtimeID:     params.ShowtimeID,
			ActorID:        params.Actor.ID,
			ContactEmail:   params.ContactEmail,
			Status:         domain.BookingStatusPending,
			PaymentStatus:  domain.PaymentStatusPending,
			PaymentMethod:  params.PaymentMethod,
			TotalAmount:    total,
			DiscountAmount: discount,
			FinalAmount:    final,
			Seats:          seats,
			Combos:         combos,
		}

		err = insertBookingWithCode(ctx, tx, booking, params.Actor.Staff, now)
		if err != nil {
			return err
		}

		err = insertBookingLines(ctx, tx, booking)
		if err != nil {
			return err
		}

		return settleSeatAndHoldRows(ctx, tx, params.ShowtimeID, holds)
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

func lockHoldRows(ctx context.Context, tx pgx.Tx, params domain.SettleParams) ([]domain.SeatHold, error) {
	query := `
		SELECT id, token, showtime_id, seat_id, actor_id, staff, status, expires_at, created_at
		FROM seat_holds
		WHERE token = $1 AND actor_id = $2 AND status = 'Held'
		ORDER BY seat_id
		FOR UPDATE
	`

	rows, err := tx.Query(ctx, query, params.HoldToken, params.Actor.ID)
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

	if holds[0].ShowtimeID != params.ShowtimeID {
		return nil, domain.ErrHoldNotFound
	}

	return holds, nil
}

func lockHeldSeats(ctx context.Context, tx pgx.Tx, showtimeID int, holds []domain.SeatHold) ([]domain.BookingSeat, error) {
	seatIDs := make([]int, 0, len(holds))
	for _, hold := range holds {
		seatIDs = append(seatIDs, hold.SeatID)
	}

	query := `
		SELECT ss.seat_id, ss.status, ss.effective_price, s.row_label, s.seat_number
		FROM showtime_seats ss
		JOIN seats s ON ss.seat_id = s.id
		WHERE ss.showtime_id = $1 AND ss.seat_id = ANY($2)
		ORDER BY ss.seat_id
		FOR UPDATE OF ss
	`

	rows, err := tx.Query(ctx, query, showtimeID, seatIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.BookingSeat, 0, len(seatIDs))

	for rows.Next() {
		var (
			seat   domain.BookingSeat
			status domain.SeatStatus
		)

		err = rows.Scan(&seat.SeatID, &status, &seat.Price, &seat.RowLabel, &seat.SeatNumber)
		if err != nil {
			return nil, err
		}

		if status != domain.SeatStatusHeld {
			return nil, domain.ErrSeatConflict
		}

		seats = append(seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(seats) != len(seatIDs) {
		return nil, domain.ErrSeatConflict
	}

	return seats, nil
}

func loadComboLines(ctx context.Context, tx pgx.Tx, quantities map[int]int) ([]domain.BookingCombo, error) {
	if len(quantities) == 0 {
		return []domain.BookingCombo{}, nil
	}

	comboIDs := make([]int, 0, len(quantities))
	for comboID := range quantities {
		comboIDs = append(comboIDs, comboID)
	}

	query := `
		SELECT id, name, unit_price
		FROM combos
		WHERE id = ANY($1) AND active
		ORDER BY id
	`

	rows, err := tx.Query(ctx, query, comboIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	combos := make([]domain.BookingCombo, 0, len(comboIDs))

	for rows.Next() {
		var combo domain.BookingCombo

		err = rows.Scan(&combo.ComboID, &combo.Name, &combo.UnitPrice)
		if err != nil {
			return nil, err
		}

		combo.Quantity = quantities[combo.ComboID]
		combo.LineTotal = combo.UnitPrice.Mul(decimal.NewFromInt(int64(combo.Quantity)))

		combos = append(combos, combo)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(combos) != len(comboIDs) {
		return nil, domain.ErrRecordNotFound
	}

	return combos, nil
}

// insertBookingWithCode inserts the booking, regenerating the code on a
// collision. Collisions only happen when two bookings settle within the same
// second and draw the same random suffix.
func insertBookingWithCode(ctx context.Context, tx pgx.Tx, booking *domain.Booking, staff bool, now time.Time) error {
	query := `
		INSERT INTO bookings
			(code, showtime_id, actor_id, contact_email, status, payment_status, payment_method,
			 total_amount, discount_amount, final_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (code) DO NOTHING
		RETURNING id, created_at, version
	`

	for attempt := 0; attempt < domain.CodeGenerationAttempts; attempt++ {
		code := domain.NewBookingCode(staff, now)

		err := tx.QueryRow(
			ctx,
			query,
			code,
			booking.ShowtimeID,
			booking.ActorID,
			booking.ContactEmail,
			booking.Status,
			booking.PaymentStatus,
			booking.PaymentMethod,
			booking.TotalAmount,
			booking.DiscountAmount,
			booking.FinalAmount,
		).Scan(&booking.ID, &booking.CreatedAt, &booking.Version)

		if err == nil {
			booking.Code = code
			return nil
		}

		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
	}

	return domain.ErrCodeGenerationExhausted
}

func insertBookingLines(ctx context.Context, tx pgx.Tx, booking *domain.Booking) error {
	seatRows := make([][]any, 0, len(booking.Seats))
	for i := range booking.Seats {
		booking.Seats[i].BookingID = booking.ID
		seat := booking.Seats[i]
		seatRows = append(seatRows, []any{
			booking.ID,
			seat.SeatID,
			seat.RowLabel,
			seat.SeatNumber,
			seat.Price,
		})
	}

	_, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"booking_seats"},
		[]string{"booking_id", "seat_id", "row_label", "seat_number", "price"},
		pgx.CopyFromRows(seatRows),
	)
	if err != nil {
		return err
	}

	if len(booking.Combos) == 0 {
		return nil
	}

	comboRows := make([][]any, 0, len(booking.Combos))
	for i := range booking.Combos {
		booking.Combos[i].BookingID = booking.ID
		combo := booking.Combos[i]
		comboRows = append(comboRows, []any{
			booking.ID,
			combo.ComboID,
			combo.Name,
			combo.UnitPrice,
			combo.Quantity,
			combo.LineTotal,
		})
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"booking_combos"},
		[]string{"booking_id", "combo_id", "name", "unit_price", "quantity", "line_total"},
		pgx.CopyFromRows(comboRows),
	)

	return err
}

func settleSeatAndHoldRows(ctx context.Context, tx pgx.Tx, showtimeID int, holds []domain.SeatHold) error {
	seatIDs := make([]int, 0, len(holds))
	holdIDs := make([]int64, 0, len(holds))
	for _, hold := range holds {
		seatIDs = append(seatIDs, hold.SeatID)
		holdIDs = append(holdIDs, hold.ID)
	}

	seatQuery := `
		UPDATE showtime_seats
		SET status = 'Booked', version = version + 1
		WHERE showtime_id = $1 AND seat_id = ANY($2)
	`

	if _, err := tx.Exec(ctx, seatQuery, showtimeID, seatIDs); err != nil {
		return err
	}

	holdQuery := `UPDATE seat_holds SET status = 'Booked' WHERE id = ANY($1)`

	_, err := tx.Exec(ctx, holdQuery, holdIDs)

	return err
}

func (p *PostgresBookingRepository) GetByCode(ctx context.Context, code string) (*domain.Booking, error) {
	query := `
		SELECT id, code, showtime_id, actor_id, contact_email, status, payment_status, payment_method,
			total_amount, discount_amount, final_amount, refund_required, paid_at,
			created_at, version
		FROM bookings
		WHERE code = $1
	`

	var booking domain.Booking

	err := p.db.QueryRow(ctx, query, code).Scan(
		&booking.ID,
		&booking.Code,
		&booking.ShowtimeID,
		&booking.ActorID,
		&booking.ContactEmail,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.PaymentMethod,
		&booking.TotalAmount,
		&booking.DiscountAmount,
		&booking.FinalAmount,
		&booking.RefundRequired,
		&booking.PaidAt,
		&booking.CreatedAt,
		&booking.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	seats, err := p.retrieveBookingSeats(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	booking.Seats = seats

	combos, err := p.retrieveBookingCombos(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	booking.Combos = combos

	return &booking, nil
}

func (p *PostgresBookingRepository) retrieveBookingSeats(ctx context.Context, bookingID int64) ([]domain.BookingSeat, error) {
	query := `
		SELECT id, booking_id, seat_id, row_label, seat_number, price
		FROM booking_seats
		WHERE booking_id = $1
		ORDER BY LENGTH(row_label), row_label, seat_number
	`

	rows, err := p.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.BookingSeat, 0)

	for rows.Next() {
		var seat domain.BookingSeat

		err = rows.Scan(&seat.ID, &seat.BookingID, &seat.SeatID, &seat.RowLabel, &seat.SeatNumber, &seat.Price)
		if err != nil {
			return nil, err
		}

		seats = append(seats, seat)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return seats, nil
}

func (p *PostgresBookingRepository) retrieveBookingCombos(ctx context.Context, bookingID int64) ([]domain.BookingCombo, error) {
	query := `
		SELECT id, booking_id, combo_id, name, unit_price, quantity, line_total
		FROM booking_combos
		WHERE booking_id = $1
		ORDER BY combo_id
	`

	rows, err := p.db.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	combos := make([]domain.BookingCombo, 0)

	for rows.Next() {
		var combo domain.BookingCombo

		err = rows.Scan(&combo.ID, &combo.BookingID, &combo.ComboID, &combo.Name, &combo.UnitPrice, &combo.Quantity, &combo.LineTotal)
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

func (p *PostgresBookingRepository) MarkPaid(ctx context.Context, code string, paidAt time.Time) (*domain.Booking, bool, error) {
	var transitioned bool

	err := runInTxRetry(ctx, p.db, p.logger, func(tx pgx.Tx) error {
		transitioned = false

		var (
			id            int64
			status        domain.BookingStatus
			paymentStatus domain.PaymentStatus
		)

		query := `SELECT id, status, payment_status FROM bookings WHERE code = $1 FOR UPDATE`

		err := tx.QueryRow(ctx, query, code).Scan(&id, &status, &paymentStatus)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		// Duplicate payment notifications for a settled booking are a no-op.
		if paymentStatus == domain.PaymentStatusPaid {
			return nil
		}

		if status == domain.BookingStatusCancelled {
			return domain.ErrBookingNotPayable
		}

		updateQuery := `
			UPDATE bookings
			SET payment_status = 'Paid', status = 'Confirmed', paid_at = $2, version = version + 1
			WHERE id = $1
		`

		if _, err := tx.Exec(ctx, updateQuery, id, paidAt); err != nil {
			return err
		}

		transitioned = true

		return nil
	})
	if err != nil {
		return nil, false, err
	}

	booking, err := p.GetByCode(ctx, code)
	if err != nil {
		return nil, false, err
	}

	return booking, transitioned, nil
}

// MarkRefunded closes the refund flagged by Cancel: the external collaborator
// has paid the money back, so the booking reaches its terminal Refunded state.
func (p *PostgresBookingRepository) MarkRefunded(ctx context.Context, code string) (*domain.Booking, error) {
	err := runInTxRetry(ctx, p.db, p.logger, func(tx pgx.Tx) error {
		var (
			id             int64
			paymentStatus  domain.PaymentStatus
			refundRequired bool
		)

		query := `SELECT id, payment_status, refund_required FROM bookings WHERE code = $1 FOR UPDATE`

		err := tx.QueryRow(ctx, query, code).Scan(&id, &paymentStatus, &refundRequired)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		if paymentStatus == domain.PaymentStatusRefunded {
			return nil
		}

		if !refundRequired {
			return domain.ErrNoRefundDue
		}

		updateQuery := `
			UPDATE bookings
			SET payment_status = 'Refunded', refund_required = false, version = version + 1
			WHERE id = $1
		`

		_, err = tx.Exec(ctx, updateQuery, id)

		return err
	})
	if err != nil {
		return nil, err
	}

	return p.GetByCode(ctx, code)
}

func (p *PostgresBookingRepository) Cancel(ctx context.Context, code string, actor domain.Actor) (*domain.Booking, error) {
	err := runInTxRetry(ctx, p.db, p.logger, func(tx pgx.Tx) error {
		var (
			id            int64
			showtimeID    int
			actorID       string
			status        domain.BookingStatus
			paymentStatus domain.PaymentStatus
		)

		query := `
			SELECT id, showtime_id, actor_id, status, payment_status
			FROM bookings
			WHERE code = $1
			FOR UPDATE
		`

		err := tx.QueryRow(ctx, query, code).Scan(&id, &showtimeID, &actorID, &status, &paymentStatus)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrRecordNotFound
			}

			return err
		}

		// Customers can only cancel their own bookings; staff can cancel
		// any booking.
		if !actor.Staff && actorID != actor.ID {
			return domain.ErrRecordNotFound
		}

		if status == domain.BookingStatusCancelled {
			return nil
		}

		refundRequired := paymentStatus == domain.PaymentStatusPaid

		updateQuery := `
			UPDATE bookings
			SET status = 'Cancelled', refund_required = $2, version = version + 1
			WHERE id = $1
		`

		if _, err := tx.Exec(ctx, updateQuery, id, refundRequired); err != nil {
			return err
		}

		freeQuery := `
			UPDATE showtime_seats ss
			SET status = 'Available', version = ss.version + 1
			FROM booking_seats bs
			WHERE bs.booking_id = $1
				AND ss.showtime_id = $2
				AND ss.seat_id = bs.seat_id
				AND ss.status = 'Booked'
		`

		_, err = tx.Exec(ctx, freeQuery, id, showtimeID)

		return err
	})
	if err != nil {
		return nil, err
	}

	return p.GetByCode(ctx, code)
}

func (p *PostgresBookingRepository) List(
	ctx context.Context,
	status domain.BookingStatus,
	paymentStatus domain.PaymentStatus,
	pagination domain.Pagination) ([]domain.Booking, *domain.Metadata, error) {

	// The sort column is mapped from a fixed safelist by the caller, never
	// taken from raw input.
	query := fmt.Sprintf(`
		SELECT
			COUNT(*) OVER(),
			id, code, showtime_id, actor_id, contact_email, status, payment_status, payment_method,
			total_amount, discount_amount, final_amount, refund_required, paid_at,
			created_at, version
		FROM bookings
		WHERE ($1 = '' OR status = $1)
			AND ($2 = '' OR payment_status = $2)
			AND ($3 = '' OR code ILIKE '%%' || $3 || '%%' OR contact_email ILIKE '%%' || $3 || '%%')
		ORDER BY %s %s, id DESC
		LIMIT $4 OFFSET $5
	`, pagination.SortColumn(), pagination.SortDirection())

	rows, err := p.db.Query(ctx, query,
		string(status), string(paymentStatus), pagination.Term, pagination.Limit(), pagination.Offset())
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	totalRecords := 0

	for rows.Next() {
		var booking domain.Booking

		err = rows.Scan(
			&totalRecords,
			&booking.ID,
			&booking.Code,
			&booking.ShowtimeID,
			&booking.ActorID,
			&booking.ContactEmail,
			&booking.Status,
			&booking.PaymentStatus,
			&booking.PaymentMethod,
			&booking.TotalAmount,
			&booking.DiscountAmount,
			&booking.FinalAmount,
			&booking.RefundRequired,
			&booking.PaidAt,
			&booking.CreatedAt,
			&booking.Version,
		)
		if err != nil {
			return nil, nil, err
		}

		bookings = append(bookings, booking)
	}

	if err = rows.Err(); err != nil {
		return nil, nil, err
	}

	metadata := domain.NewMetadata(totalRecords, pagination.Page, pagination.PageSize)

	return bookings, metadata, nil
}
