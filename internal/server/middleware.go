package server

import (
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

const scorekeeperRealm = `Basic realm="scorekeeper", charset="UTF-8"`

// scorekeeperAuth guards mutating routes with HTTP Basic auth. The
// username is ignored; the password is checked against a bcrypt hash.
// An empty hash disables the check.
func scorekeeperAuth(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if hash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, password, ok := r.BasicAuth()
			if !ok || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
				w.Header().Set("WWW-Authenticate", scorekeeperRealm)
				writeError(w, http.StatusUnauthorized, "scorekeeper password required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
