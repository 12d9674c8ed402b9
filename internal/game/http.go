package game

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kkysen/listenup/internal/content"
	"github.com/kkysen/listenup/internal/logging"
	httperrors "github.com/kkysen/listenup/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for the game surface.
type HTTPHandlers struct {
	svc    *Service
	logger zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for game endpoints.
func NewHTTPHandlers(svc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{svc: svc, logger: logger}
}

// CreateUser handles POST /v1/users
func (h *HTTPHandlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}

	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidRequest, "username is required", "username")
		return
	}

	user, err := h.svc.CreateUser(r.Context(), req.Username)
	if errors.Is(err, ErrUsernameTaken) {
		httperrors.RespondError(w, http.StatusConflict, httperrors.ErrCodeUsernameTaken, "Username already taken")
		return
	}
	if err != nil {
		logger := logging.FromContext(r.Context(), h.logger)
		logger.Error().Err(err).Msg("create user failed")
		httperrors.RespondInternalError(w, "Could not create user")
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"user_id":  user.UserID.String(),
		"username": user.Username,
	})
}

// NextQuestion handles GET /v1/game/next-question
func (h *HTTPHandlers) NextQuestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	question, err := h.svc.NextQuestion(r.Context(), userID)
	if err != nil {
		h.respondGameError(w, r, err, "next question failed")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":         question.ID,
		"text":       question.Text,
		"choices":    question.Choices,
		"type":       question.Type,
		"difficulty": question.Difficulty,
		"category":   question.Category,
		"audio_path": question.AudioPath,
	})
}

// CheckAnswer handles POST /v1/game/check-answer. A winning answer is
// rewarded with a congratulation song alongside the result.
func (h *HTTPHandlers) CheckAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req struct {
		QuestionID uint64 `json:"question_id"`
		Answer     string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	correct, err := h.svc.CompleteQuestion(r.Context(), userID, req.QuestionID, req.Answer)
	if err != nil {
		h.respondGameError(w, r, err, "check answer failed")
		return
	}

	resp := map[string]interface{}{"correct": correct}

	won, err := h.svc.ClaimWin(r.Context(), userID)
	if err == nil && won {
		resp["won"] = true
		if song, err := h.svc.NextSong(r.Context(), userID, true); err == nil {
			resp["victory_song"] = songPayload(song)
		}
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// NextSong handles GET /v1/game/next-song
func (h *HTTPHandlers) NextSong(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	song, err := h.svc.NextSong(r.Context(), userID, false)
	if err != nil {
		h.respondGameError(w, r, err, "next song failed")
		return
	}
	h.respondJSON(w, http.StatusOK, songPayload(song))
}

// SongPlayed handles POST /v1/game/song-played
func (h *HTTPHandlers) SongPlayed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req struct {
		SongID uint64 `json:"song_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SongID == 0 {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidRequest, "song_id is required", "song_id")
		return
	}

	if err := h.svc.RecordSongPlayed(r.Context(), userID, req.SongID); err != nil {
		h.respondGameError(w, r, err, "record song failed")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"recorded": true})
}

// SetOptions handles POST /v1/game/options
func (h *HTTPHandlers) SetOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondError(w, http.StatusMethodNotAllowed, httperrors.ErrCodeInvalidRequest, "Method not allowed")
		return
	}
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var req content.FilterOptions
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	if err := h.svc.SetOptions(r.Context(), userID, req); err != nil {
		if errors.Is(err, content.ErrInvalidOption) {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidOption, err.Error())
			return
		}
		h.respondGameError(w, r, err, "set options failed")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{"applied": true})
}

// Me handles GET /v1/game/me
func (h *HTTPHandlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	user, err := h.svc.User(r.Context(), userID)
	if err != nil {
		h.respondGameError(w, r, err, "load user failed")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":     user.UserID.String(),
		"username":    user.Username,
		"points":      user.Points,
		"game_points": user.GamePoints(),
		"has_won":     user.HasWon(),
	})
}

func (h *HTTPHandlers) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidRequest, "X-User-ID header is required", "X-User-ID")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidRequest, "X-User-ID must be a UUID", "X-User-ID")
		return uuid.Nil, false
	}
	return userID, true
}

func (h *HTTPHandlers) respondGameError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeUserNotFound, "Unknown user")
	case errors.Is(err, ErrUnknownSong):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Unknown song id")
	case errors.Is(err, content.ErrUpstreamFailure):
		httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "Content source is unavailable")
	case errors.Is(err, content.ErrContentUnavailable):
		httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeContentUnavailable, "No new content available right now")
	default:
		logger := logging.FromContext(r.Context(), h.logger)
		logger.Error().Err(err).Msg(msg)
		httperrors.RespondInternalError(w, "Something went wrong")
	}
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func songPayload(song content.Song) map[string]interface{} {
	return map[string]interface{}{
		"id":         song.ID,
		"artist":     song.Artist,
		"title":      song.Title,
		"lyrics":     song.Lyrics,
		"audio_path": song.AudioPath,
	}
}
