package utils

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type contextKey string

const UserIDKey contextKey = "userID"

// SessionCookie carries the signed session token for browser clients.
const SessionCookie = "session"

const LoginPath = "/accounts/login"

func GetUserIDFromContext(ctx context.Context) (uint, error) {
	userID, ok := ctx.Value(UserIDKey).(uint)
	if !ok {
		return 0, errors.New("user ID not found in context")
	}
	return userID, nil
}

// NewSessionToken signs a session token for the given user.
func NewSessionToken(userID uint, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("SECRET_KEY")))
}

// SetSessionCookie installs the session token on the response.
func SetSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// requestUserID resolves the session token from the cookie or, failing that,
// the Authorization header, and returns the user ID it names.
func requestUserID(r *http.Request) (uint, error) {
	var tokenString string
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		tokenString = cookie.Value
	} else if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		tokenString = strings.Replace(authHeader, "Bearer ", "", 1)
	}
	if tokenString == "" {
		return 0, errors.New("no session token")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(os.Getenv("SECRET_KEY")), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid session token")
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, errors.New("invalid user ID in token")
	}
	return uint(userID), nil
}

// RequireAuth redirects unauthenticated requests to the login page and puts
// the user ID on the request context otherwise.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

// WithUser puts the user ID on the context when a valid session is present
// but lets anonymous requests through. Used on public pages that adapt to
// the signed-in user (like state, comment form).
func WithUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if userID, err := requestUserID(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), UserIDKey, userID))
		}
		next(w, r)
	}
}
