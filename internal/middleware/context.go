package middleware

import "github.com/labstack/echo/v4"

// UserIDKey is the echo context key holding the authenticated local user id (uint).
const UserIDKey = "userID"

// UserID returns the authenticated user id, or 0 when the request is anonymous.
func UserID(c echo.Context) uint {
	id, _ := c.Get(UserIDKey).(uint)
	return id
}
