package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"cinestream.app/cinebot/internal/auth"
	"cinestream.app/cinebot/internal/core"
	"cinestream.app/cinebot/internal/locale"
	"cinestream.app/cinebot/internal/store"
)

type APIHandler struct {
	chatService    *core.ChatService
	tokens         *auth.TokenIssuer
	defaultLocale  locale.Locale
	allowedOrigins []string
	timeouts       TimeoutConfig
	logger         *zap.SugaredLogger
}

func NewAPIHandler(cs *core.ChatService, tokens *auth.TokenIssuer, defaultLocale locale.Locale, allowedOrigins []string, logger *zap.SugaredLogger) *APIHandler {
	return &APIHandler{
		chatService:    cs,
		tokens:         tokens,
		defaultLocale:  defaultLocale,
		allowedOrigins: allowedOrigins,
		timeouts:       DefaultTimeouts,
		logger:         logger,
	}
}

func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.chatService.SessionCount(),
	})
}

// localeOr parses raw, falling back to the service default when raw is empty.
func (h *APIHandler) localeOr(raw string) (locale.Locale, error) {
	if raw == "" {
		return h.defaultLocale, nil
	}
	return locale.Parse(raw)
}

type SessionView struct {
	SessionID string          `json:"session_id"`
	Locale    locale.Locale   `json:"locale"`
	Pending   bool            `json:"pending"`
	Messages  []store.Message `json:"messages"`
}

func viewOf(session *core.Session) SessionView {
	return SessionView{
		SessionID: session.ID,
		Locale:    session.Assistant.Locale(),
		Pending:   session.Assistant.Pending(),
		Messages:  session.Assistant.Conversation().Messages(),
	}
}

type CreateSessionRequest struct {
	Locale string `json:"locale,omitempty"`
}

type CreateSessionResponse struct {
	SessionView
	Token       string `json:"token"`
	Placeholder string `json:"placeholder"`
}

func (h *APIHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(w, "invalid request body: "+err.Error())
		return
	}

	l, err := h.localeOr(req.Locale)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}

	// The token is the only handle on the session
	session := h.chatService.CreateChat(l)
	token, err := h.tokens.Issue(session.ID)
	if err != nil {
		_ = h.chatService.CloseChat(session.ID)
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, CreateSessionResponse{
		SessionView: viewOf(session),
		Token:       token,
		Placeholder: locale.For(l).Placeholder,
	})
}

func (h *APIHandler) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, viewOf(sessionFrom(r)))
}

func (h *APIHandler) CloseSessionHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.chatService.CloseChat(sessionFrom(r).ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type SetLocaleRequest struct {
	Locale string `json:"locale"`
}

func (h *APIHandler) SetLocaleHandler(w http.ResponseWriter, r *http.Request) {
	var req SetLocaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body: "+err.Error())
		return
	}
	l, err := locale.Parse(req.Locale)
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}

	session, err := h.chatService.SetLocale(sessionFrom(r).ID, l)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, viewOf(session))
}

type PostMessageRequest struct {
	Text string `json:"text"`
}

type PostMessageResponse struct {
	Reply store.Message `json:"reply"`
}

// PostMessageHandler waits for the reply however long it takes: the server
// deadlines are lifted for this request. If the client goes away first the
// reply is still appended to the conversation.
func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, "invalid request body: "+err.Error())
		return
	}

	session := sessionFrom(r)
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.logger.Debugw("Could not lift write deadline", "session", session.ID, "error", err)
	}
	if err := rc.SetReadDeadline(time.Time{}); err != nil {
		h.logger.Debugw("Could not lift read deadline", "session", session.ID, "error", err)
	}

	reply, err := h.chatService.PostMessage(r.Context(), session.ID, req.Text)
	if err != nil {
		if r.Context().Err() != nil {
			h.logger.Infow("Client left before the reply settled", "session", session.ID)
			return
		}
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, PostMessageResponse{Reply: reply})
}

type MoviesResponse struct {
	Movies  []store.Movie `json:"movies"`
	Message string        `json:"message,omitempty"`
}

func (h *APIHandler) GetWatchListHandler(w http.ResponseWriter, r *http.Request) {
	movies, err := h.chatService.GetWatchList(sessionFrom(r).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, MoviesResponse{Movies: movies})
}

func movieIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "movieID"), 10, 64)
}

func (h *APIHandler) ToggleWatchListHandler(w http.ResponseWriter, r *http.Request) {
	movieID, err := movieIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid movie id")
		return
	}

	toggle, err := h.chatService.ToggleWatchList(sessionFrom(r).ID, movieID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toggle)
}

func (h *APIHandler) SearchMoviesHandler(w http.ResponseWriter, r *http.Request) {
	l, err := h.localeOr(r.URL.Query().Get("locale"))
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}

	movies, err := h.chatService.SearchMovies(r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := MoviesResponse{Movies: movies}
	// Localized "no results" text for the empty state
	if len(movies) == 0 {
		resp.Message = locale.For(l).NoResults
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) GetMovieHandler(w http.ResponseWriter, r *http.Request) {
	movieID, err := movieIDParam(r)
	if err != nil {
		h.badRequest(w, "invalid movie id")
		return
	}

	movie, err := h.chatService.GetMovie(movieID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, movie)
}

// BrowseHandler returns the home screen rows in the requested locale.
func (h *APIHandler) BrowseHandler(w http.ResponseWriter, r *http.Request) {
	l, err := h.localeOr(r.URL.Query().Get("locale"))
	if err != nil {
		h.badRequest(w, err.Error())
		return
	}

	page, err := h.chatService.Browse(r.URL.Query().Get("q"), l, nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

// SessionBrowseHandler adds the session's "My List" row and uses its locale.
func (h *APIHandler) SessionBrowseHandler(w http.ResponseWriter, r *http.Request) {
	page, err := h.chatService.BrowseSession(sessionFrom(r).ID, r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}
