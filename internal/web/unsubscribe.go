package web

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ritwyck/too-good-to-go-terminal/internal/store"
)

// UnsubscribePage handles GET /unsubscribe, linked from the email footer.
func (s *Server) UnsubscribePage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "unsubscribe.html", &PageData{Title: "Unsubscribe"})
}

// UnsubscribeSubmit handles POST /unsubscribe. The password check keeps a
// third party who knows the email address from deleting the account.
func (s *Server) UnsubscribeSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	user, err := store.GetUserByEmail(r.Context(), s.DB, email)
	if err != nil {
		s.Log.Error("failed to look up user", zap.Error(err))
		s.Templates.Render(w, "unsubscribe.html", &PageData{Title: "Unsubscribe", Error: "Something went wrong, try again."})
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.Templates.Render(w, "unsubscribe.html", &PageData{Title: "Unsubscribe", Error: "Wrong email or password."})
		return
	}

	if err := store.DeleteUser(r.Context(), s.DB, user.ID); err != nil {
		s.Log.Error("failed to delete user", zap.Int64("user_id", user.ID), zap.Error(err))
		s.Templates.Render(w, "unsubscribe.html", &PageData{Title: "Unsubscribe", Error: "Something went wrong, try again."})
		return
	}

	s.Log.Info("user unsubscribed", zap.Int64("user_id", user.ID))
	s.Templates.Render(w, "unsubscribe.html", &PageData{
		Title:   "Unsubscribe",
		Success: "You are unsubscribed. Your account and notification history have been deleted.",
	})
}
