package web

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ritwyck/too-good-to-go-terminal/internal/model"
	"github.com/ritwyck/too-good-to-go-terminal/internal/store"
)

const dashboardHistoryLimit = 50

// Dashboard handles GET /dashboard.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	user, err := store.GetUser(r.Context(), s.DB, claims.UserID)
	if err != nil || user == nil {
		s.Log.Error("failed to load user for dashboard", zap.Error(err))
		clearAuthCookie(w)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	records, err := store.ListRecentRecords(r.Context(), s.DB, claims.UserID, dashboardHistoryLimit)
	if err != nil {
		s.Log.Error("failed to list notification history", zap.Error(err))
	}

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		MonitoringEnabled bool
		Records           []model.NotificationRecord
	}{
		PageData:          PageData{Title: "Dashboard", User: claims},
		MonitoringEnabled: user.MonitoringEnabled,
		Records:           records,
	})
}

// MonitoringSubmit handles POST /monitoring. It toggles whether the poll
// loop checks this user.
func (s *Server) MonitoringSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())
	enabled := r.FormValue("enabled") == "true"

	if err := store.SetMonitoring(r.Context(), s.DB, claims.UserID, enabled); err != nil {
		s.Log.Error("failed to set monitoring", zap.Int64("user_id", claims.UserID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// DeregisterSubmit handles POST /deregister. It deletes the account along
// with stored credentials and notification history.
func (s *Server) DeregisterSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetWebClaims(r.Context())

	if err := store.DeleteUser(r.Context(), s.DB, claims.UserID); err != nil {
		s.Log.Error("failed to delete user", zap.Int64("user_id", claims.UserID), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.Log.Info("user deregistered", zap.Int64("user_id", claims.UserID))
	clearAuthCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
