package domain

import "strconv"

// Actor identifies who is holding or booking seats. Self-service customers
// are identified by their opaque session token, staff members by their
// numeric id rendered with a "staff:" prefix, so the two id spaces can never
// collide inside the shared hold ledger.
type Actor struct {
	ID    string
	Staff bool
}

func SessionActor(sessionID string) Actor {
	return Actor{ID: sessionID}
}

func StaffActor(staffID int) Actor {
	return Actor{ID: "staff:" + strconv.Itoa(staffID), Staff: true}
}
