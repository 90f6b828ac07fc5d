package web

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ritwyck/too-good-to-go-terminal/internal/auth"
	"github.com/ritwyck/too-good-to-go-terminal/internal/store"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", &PageData{Title: "Log in"})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	if email == "" || password == "" {
		s.Templates.Render(w, "login.html", &PageData{
			Title: "Log in",
			Error: "Enter your email and password.",
		})
		return
	}

	user, err := store.GetUserByEmail(r.Context(), s.DB, email)
	if err != nil || user == nil {
		s.Templates.Render(w, "login.html", &PageData{
			Title: "Log in",
			Error: "Wrong email or password.",
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.Templates.Render(w, "login.html", &PageData{
			Title: "Log in",
			Error: "Wrong email or password.",
		})
		return
	}

	token, err := auth.GenerateToken(s.JWTSecret, user.ID, user.Email)
	if err != nil {
		s.Log.Error("failed to generate token", zap.Error(err))
		s.Templates.Render(w, "login.html", &PageData{
			Title: "Log in",
			Error: "Something went wrong, try again.",
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(auth.TokenExpiry.Seconds()),
	})

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout handles POST /logout. The session token is revoked so it cannot be
// replayed before its expiry.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		if claims, err := auth.ValidateToken(s.JWTSecret, cookie.Value); err == nil && claims.ID != "" {
			if err := store.RevokeToken(r.Context(), s.DB, claims.ID, claims.ExpiresAt.Time); err != nil {
				s.Log.Error("failed to revoke token", zap.Error(err))
			}
		}
	}

	clearAuthCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
