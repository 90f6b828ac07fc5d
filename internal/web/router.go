package web

import (
	"database/sql"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ritwyck/too-good-to-go-terminal/internal/secrets"
	"github.com/ritwyck/too-good-to-go-terminal/internal/tgtg"
	webembed "github.com/ritwyck/too-good-to-go-terminal/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, jwtSecret string, market *tgtg.Client, key *[secrets.KeySize]byte, serverURL string, log *zap.Logger) (http.Handler, error) {
	templates, err := LoadTemplates(log)
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:          db,
		Templates:   templates,
		JWTSecret:   jwtSecret,
		Marketplace: market,
		Key:         key,
		ServerURL:   serverURL,
		Log:         log,
	}

	mux := http.NewServeMux()
	cookieAuth := CookieAuthMiddleware(jwtSecret, db, log)

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /{$}", s.IndexPage)
	mux.HandleFunc("POST /register", s.RegisterSubmit)
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)
	mux.HandleFunc("GET /unsubscribe", s.UnsubscribePage)
	mux.HandleFunc("POST /unsubscribe", s.UnsubscribeSubmit)

	// Authenticated routes.
	mux.Handle("GET /dashboard", cookieAuth(http.HandlerFunc(s.Dashboard)))
	mux.Handle("POST /monitoring", cookieAuth(http.HandlerFunc(s.MonitoringSubmit)))
	mux.Handle("POST /deregister", cookieAuth(http.HandlerFunc(s.DeregisterSubmit)))

	// Operational endpoints.
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	return LoggingMiddleware(log)(mux), nil
}
