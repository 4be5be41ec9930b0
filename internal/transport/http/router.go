package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"quiz-results-service/internal/app"
	"quiz-results-service/internal/auth"
)

// NewRouter wires the REST API and the websocket feed behind session and
// CORS middleware.
func NewRouter(service *app.ResultService, sessions *auth.Sessions, logger *slog.Logger, allowedOrigins []string) http.Handler {
	api := NewAPI(service, sessions, logger)
	ws := NewWSHandler(service, logger)

	r := mux.NewRouter()
	r.Use(sessions.Middleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/ws", ws.ServeWS)

	s := r.PathPrefix("/api").Subrouter()
	s.HandleFunc("/user", api.HandleUser).Methods(http.MethodGet)
	s.HandleFunc("/session", api.HandleSession).Methods(http.MethodPost)
	s.HandleFunc("/logout", api.HandleLogout).Methods(http.MethodPost)
	s.HandleFunc("/result/all", api.HandleAllResults).Methods(http.MethodGet)
	s.HandleFunc("/result/sources", api.HandleSources).Methods(http.MethodGet)
	s.HandleFunc("/result/{date}", api.HandleResult).Methods(http.MethodGet)
	s.HandleFunc("/result", api.HandleSaveResult).Methods(http.MethodPost)
	s.HandleFunc("/statistics", api.HandleStatistics).Methods(http.MethodGet)
	s.HandleFunc("/day/{date}", api.HandleDay).Methods(http.MethodGet)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
