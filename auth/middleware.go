package auth

import (
	"net/http"
	"strings"

	"tunefeed/domain"
	"tunefeed/errs"
)

// RememberCookie is the name of the cookie holding a user's remember token.
const RememberCookie = "remember_token"

// UserMw looks up the user of the remember token cookie and puts it into the request context.
type UserMw struct {
	domain.UserService
}

// Apply wraps next with the UserMw.
func (mw *UserMw) Apply(next http.Handler) http.Handler {
	return mw.ApplyFn(next.ServeHTTP)
}

// ApplyFn wraps next with the UserMw. Requests without a valid cookie are passed on
// without a user.
func (mw *UserMw) ApplyFn(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Metrics are scraped without a session, so we skip looking up the current user.
		if strings.HasPrefix(r.URL.Path, "/metrics") {
			next(w, r)
			return
		}
		cookie, err := r.Cookie(RememberCookie)
		if err != nil || cookie.Value == "" {
			next(w, r)
			return
		}
		user, err := mw.UserService.ByRemember(r.Context(), cookie.Value)
		if err != nil {
			next(w, r)
			return
		}
		next(w, r.WithContext(SetUser(r.Context(), user)))
	}
}

// RequireUser assumes that UserMw has already been run, otherwise it will
// reject every request. Requests without a user get a 401.
func RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if GetUser(r.Context()) == nil {
			errs.ReturnError(w, r, errs.Errorf(errs.EUNAUTHORIZED, "Unauthorized access, please log in."))
			return
		}
		next(w, r)
	}
}
