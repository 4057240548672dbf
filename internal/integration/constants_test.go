package integration_test

const (
	dbName         = "booking_engine"
	dbUser         = "test_user"
	dbPassword     = "test_password"
	dbImageName    = "postgres:17-alpine"
	cacheImageName = "redis:7"
)

// Seed data shared by the whole suite. The catalog is static, everything
// that tests mutate (holds, showtime seats, bookings) is truncated between
// tests.
const (
	testAuditoriumID = 1
	testShowtimeID   = 1
	testComboID      = 1

	testBasePrice        = "100.00"
	testCoupleMultiplier = "1.50"
)
