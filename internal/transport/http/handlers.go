package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"studyring-service/internal/app"
	"studyring-service/internal/domain"
)

// Handler wires the core services onto a JSON REST surface. Identity arrives
// as an opaque X-User-ID header set by the auth collaborator upstream;
// issuing sessions is out of scope here.
type Handler struct {
	users    *app.UserService
	progress *app.ProgressService
	rankings *app.RankingService
	posts    *app.PostService
	quizzes  *app.QuizService
}

func NewHandler(users *app.UserService, progress *app.ProgressService, rankings *app.RankingService, posts *app.PostService, quizzes *app.QuizService) *Handler {
	return &Handler{users: users, progress: progress, rankings: rankings, posts: posts, quizzes: quizzes}
}

// Register mounts all REST routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/users", h.handleRegister)
	mux.HandleFunc("GET /api/progress", h.handleReadProgress)
	mux.HandleFunc("POST /api/progress", h.handleApplyDelta)
	mux.HandleFunc("POST /api/progress/reset", h.handleReset)
	mux.HandleFunc("POST /api/sessions", h.handleLogSession)
	mux.HandleFunc("GET /api/rankings", h.handleRankings)
	mux.HandleFunc("POST /api/groups/{groupID}/posts", h.handleCreatePost)
	mux.HandleFunc("GET /api/groups/{groupID}/posts", h.handleListPosts)
	mux.HandleFunc("POST /api/posts/{postID}/answer", h.handleSubmitAnswer)
}

const userIDHeader = "X-User-ID"

func callerID(r *http.Request) (string, bool) {
	id := r.Header.Get(userIDHeader)
	return id, id != ""
}

type registerRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar"`
	Bio    string `json:"bio"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" || req.Email == "" {
		writeMessage(w, http.StatusBadRequest, "name and email are required")
		return
	}
	user, err := h.users.Register(r.Context(), req.Name, req.Email, req.Avatar, req.Bio)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleReadProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing "+userIDHeader)
		return
	}
	progress, err := h.progress.Read(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

type deltaRequest struct {
	HoursDelta  float64 `json:"hoursDelta"`
	PointsDelta int     `json:"pointsDelta"`
}

func (h *Handler) handleApplyDelta(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing "+userIDHeader)
		return
	}
	var req deltaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid payload")
		return
	}
	progress, err := h.progress.ApplyDelta(r.Context(), userID, req.HoursDelta, req.PointsDelta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

type resetRequest struct {
	Field string `json:"field"`
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing "+userIDHeader)
		return
	}
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid payload")
		return
	}
	field, err := domain.ParseProgressField(req.Field)
	if err != nil {
		writeError(w, err)
		return
	}
	progress, err := h.progress.Reset(r.Context(), userID, field)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

type sessionRequest struct {
	DurationMinutes int `json:"durationMinutes"`
}

func (h *Handler) handleLogSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing "+userIDHeader)
		return
	}
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid payload")
		return
	}
	progress, err := h.progress.LogSession(r.Context(), userID, req.DurationMinutes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (h *Handler) handleRankings(w http.ResponseWriter, r *http.Request) {
	metric, err := domain.ParseMetric(r.URL.Query().Get("metric"))
	if err != nil {
		writeError(w, err)
		return
	}
	ranking, err := h.rankings.ComputeRanking(r.Context(), metric)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ranking)
}

func (h *Handler) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing "+userIDHeader)
		return
	}
	var content domain.PostContent
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		writeError(w, domain.ErrInvalidContent)
		return
	}
	post, err := h.posts.CreatePost(r.Context(), r.PathValue("groupID"), userID, content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *Handler) handleListPosts(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := callerID(r)
	views, err := h.posts.ListPosts(r.Context(), r.PathValue("groupID"), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

type answerRequest struct {
	OptionIndex *int `json:"optionIndex"`
}

func (h *Handler) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(r)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing "+userIDHeader)
		return
	}
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OptionIndex == nil {
		writeMessage(w, http.StatusBadRequest, "optionIndex is required")
		return
	}
	result, err := h.quizzes.SubmitAnswer(r.Context(), r.PathValue("postID"), userID, *req.OptionIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type errorBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Message: message})
}

// writeError maps the domain error taxonomy onto HTTP statuses. Every branch
// is a terminal business-rule violation scoped to this request; nothing here
// is retried.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrProgressNotFound),
		errors.Is(err, domain.ErrPostNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyAnswered):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrSelfAnswer),
		errors.Is(err, domain.ErrNotOwner):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrNegativeDelta),
		errors.Is(err, domain.ErrUnknownMetric),
		errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrNotQuiz),
		errors.Is(err, domain.ErrInvalidContent),
		errors.Is(err, domain.ErrEmailTaken):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("http: internal error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}
