package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"quiz-results-service/internal/app"
	"quiz-results-service/internal/auth"
	"quiz-results-service/internal/domain"
)

const maxBodyBytes = 1 << 16

type API struct {
	service  *app.ResultService
	sessions *auth.Sessions
	logger   *slog.Logger
}

func NewAPI(service *app.ResultService, sessions *auth.Sessions, logger *slog.Logger) *API {
	return &API{service: service, sessions: sessions, logger: logger}
}

func (a *API) HandleUser(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		writeServiceError(w, domain.ErrUnauthenticated)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

type sessionRequest struct {
	Token string `json:"token"`
}

// HandleSession exchanges a signed token for the HTTP-only session cookie.
func (a *API) HandleSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	user, err := a.sessions.Start(w, req.Token)
	if err != nil {
		a.logger.Warn("session rejected", slog.Any("error", err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (a *API) HandleLogout(w http.ResponseWriter, r *http.Request) {
	a.sessions.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (a *API) HandleAllResults(w http.ResponseWriter, r *http.Request) {
	results, err := a.service.ListResults(r.Context())
	if err != nil {
		a.logger.Error("list results", slog.Any("error", err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRawResults(results))
}

func (a *API) HandleResult(w http.ResponseWriter, r *http.Request) {
	result, err := a.service.GetResult(r.Context(), mux.Vars(r)["date"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.FromResult(result))
}

func (a *API) HandleSources(w http.ResponseWriter, r *http.Request) {
	sources, err := a.service.QuizSources(r.Context())
	if err != nil {
		a.logger.Error("list sources", slog.Any("error", err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sources)
}

func (a *API) HandleSaveResult(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok {
		writeServiceError(w, domain.ErrUnauthenticated)
		return
	}
	if !user.Admin {
		writeServiceError(w, domain.ErrForbidden)
		return
	}

	var raw domain.RawResult
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid result payload")
		return
	}

	saved, err := a.service.SaveResult(r.Context(), raw, parseBoolParam(r, "notify"))
	if err != nil {
		a.logger.Warn("save result rejected", slog.String("user", user.Email), slog.Any("error", err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.FromResult(saved))
}

func (a *API) HandleStatistics(w http.ResponseWriter, r *http.Request) {
	window, err := parseIntParam(r, "window", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := a.service.Statistics(r.Context(), window)
	if err != nil {
		a.logger.Error("calculate statistics", slog.Any("error", err))
		writeServiceError(w, err)
		return
	}
	// nil encodes as null: not enough data yet.
	writeJSON(w, http.StatusOK, info)
}

func (a *API) HandleDay(w http.ResponseWriter, r *http.Request) {
	view, err := a.service.Day(r.Context(), mux.Vars(r)["date"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
