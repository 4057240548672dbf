package app

import (
	"net/http"
	"strconv"
)

type sessionKey string

const (
	SessionKeyGuest = sessionKey("guest")
)

func (s sessionKey) String() string {
	return string(s)
}

type contextKey string

const (
	loggerContextKey = contextKey("logger")
	staffContextKey  = contextKey("staffID")
)

// HeaderStaffID carries the staff member's id, asserted by the upstream
// identity service before the request reaches this module.
const HeaderStaffID = "X-Staff-Id"

func (app *application) readStaffID(r *http.Request) int {
	staffID, err := strconv.Atoi(r.Header.Get(HeaderStaffID))
	if err != nil || staffID < 1 {
		return 0
	}

	return staffID
}
