package utils

import (
	"net/http"
	"time"
)

// TokenCookieName is the session cookie carrying the signed token.
const TokenCookieName = "token"

// AttachTokenCookie stores the session token as an HttpOnly cookie with
// an expiry matching the token's TTL.
func AttachTokenCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookie terminates the client-visible session by issuing an
// empty cookie that is already expired. The token itself stays valid
// until its own expiry; logout is advisory only.
func ClearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Now(),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
