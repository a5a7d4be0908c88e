package accounts

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the account endpoints.
//
// When mounted at /api/accounts:
//   - POST /api/accounts/register - Create account + root folder, sign in
//   - POST /api/accounts/login    - Sign in
//   - POST /api/accounts/logout   - Sign out
//   - GET  /api/accounts/me       - Signed-in user's account
//
// Register and login are reachable without a session; /me relies on the
// session middleware having loaded the user.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/register", h.RegisterHandler)
	r.Post("/login", h.LoginHandler)
	r.Post("/logout", h.LogoutHandler)
	r.Get("/me", h.MeHandler)

	return r
}
