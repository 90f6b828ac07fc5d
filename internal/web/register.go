package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ritwyck/too-good-to-go-terminal/internal/model"
	"github.com/ritwyck/too-good-to-go-terminal/internal/secrets"
	"github.com/ritwyck/too-good-to-go-terminal/internal/store"
)

// approvalTimeout bounds how long a pending registration waits for the user
// to click the approval link in their marketplace email.
const approvalTimeout = 5 * time.Minute

// IndexPage handles GET /. It shows the landing page with the signup form.
func (s *Server) IndexPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "index.html", &PageData{Title: "Surprise bag alerts"})
}

// RegisterSubmit handles POST /register. The marketplace login is
// email-approval based: we start the flow here, tell the user to check their
// inbox, and finish account creation in the background once they approve.
// The account only exists after approval succeeds.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	password := r.FormValue("password")

	if err := model.ValidateEmail(email); err != nil {
		s.Templates.Render(w, "index.html", &PageData{Title: "Surprise bag alerts", Error: err.Error()})
		return
	}
	if err := model.ValidatePassword(password); err != nil {
		s.Templates.Render(w, "index.html", &PageData{Title: "Surprise bag alerts", Error: err.Error()})
		return
	}

	existing, err := store.GetUserByEmail(r.Context(), s.DB, email)
	if err != nil {
		s.Log.Error("failed to look up user", zap.Error(err))
		s.Templates.Render(w, "index.html", &PageData{Title: "Surprise bag alerts", Error: "Something went wrong, try again."})
		return
	}
	if existing != nil {
		s.Templates.Render(w, "index.html", &PageData{Title: "Surprise bag alerts", Error: "This email is already registered."})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.Log.Error("failed to hash password", zap.Error(err))
		s.Templates.Render(w, "index.html", &PageData{Title: "Surprise bag alerts", Error: "Something went wrong, try again."})
		return
	}

	pollingID, err := s.Marketplace.StartAuth(r.Context(), email)
	if err != nil {
		s.Log.Warn("failed to start marketplace auth", zap.String("email", email), zap.Error(err))
		s.Templates.Render(w, "index.html", &PageData{Title: "Surprise bag alerts", Error: "Could not reach the marketplace, try again later."})
		return
	}

	go s.completeRegistration(email, string(hash), pollingID)

	s.Templates.Render(w, "index.html", &PageData{
		Title:   "Surprise bag alerts",
		Success: "Almost there! Open the Too Good To Go email we just triggered and approve the login, then come back and log in here.",
	})
}

// completeRegistration waits for the marketplace approval, then creates the
// account and stores the encrypted credentials. Runs detached from the
// request; failures only leave the user unregistered.
func (s *Server) completeRegistration(email, passwordHash, pollingID string) {
	ctx, cancel := context.WithTimeout(context.Background(), approvalTimeout)
	defer cancel()

	creds, err := s.Marketplace.PollAuth(ctx, email, pollingID)
	if err != nil {
		s.Log.Warn("marketplace auth not approved", zap.String("email", email), zap.Error(err))
		return
	}

	user, err := store.CreateUser(ctx, s.DB, email, passwordHash)
	if err != nil {
		s.Log.Error("failed to create user after approval", zap.String("email", email), zap.Error(err))
		return
	}

	plaintext, err := json.Marshal(creds)
	if err != nil {
		s.Log.Error("failed to encode credentials", zap.Int64("user_id", user.ID), zap.Error(err))
		return
	}
	ciphertext, err := secrets.Seal(s.Key, plaintext)
	if err != nil {
		s.Log.Error("failed to encrypt credentials", zap.Int64("user_id", user.ID), zap.Error(err))
		return
	}
	if err := store.SaveCredentials(ctx, s.DB, user.ID, ciphertext); err != nil {
		s.Log.Error("failed to save credentials", zap.Int64("user_id", user.ID), zap.Error(err))
		return
	}

	s.Log.Info("registration completed", zap.Int64("user_id", user.ID), zap.String("email", email))
}
