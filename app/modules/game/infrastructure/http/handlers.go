// Package gamehttp is the HTTP action layer of the game module.
package gamehttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	gameservice "github.com/Black-And-White-Club/party-bot/app/modules/game/application"
	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	"github.com/Black-And-White-Club/party-bot/pkg/jwt"
	"github.com/Black-And-White-Club/party-bot/pkg/observability/attr"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Error query reasons used on redirects.
const (
	reasonDuplicate = "duplicate"
	reasonConflict  = "conflict"
	reasonInvalid   = "invalid"
)

// starsFieldPrefix prefixes the audience star form fields: stars.<answer id>=<count>.
const starsFieldPrefix = "stars."

// Handlers serves the game routes.
type Handlers struct {
	service gameservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewHandlers creates Handlers.
func NewHandlers(service gameservice.Service, logger *slog.Logger, tracer trace.Tracer) *Handlers {
	return &Handlers{service: service, logger: logger, tracer: tracer}
}

// HandleGetRoom returns the room read model as JSON.
func (h *Handlers) HandleGetRoom(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GameHTTP.HandleGetRoom")
	defer span.End()

	room, err := h.service.GetRoom(ctx, chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// roomAction is a creator or member action on a resolved room.
type roomAction func(ctx context.Context, r *http.Request, room *gameservice.RoomView, caller Caller) (gamedomain.Phase, error)

// action resolves the room and caller, runs fn and redirects to the page of
// the phase it returns, or of the failure.
func (h *Handlers) action(name string, fn roomAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := h.tracer.Start(r.Context(), "GameHTTP."+name)
		defer span.End()

		code := chi.URLParam(r, "code")
		caller, ok := CallerFromContext(ctx)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if err := jwt.MatchRoom(caller.RoomCode, code); err != nil {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		room, err := h.service.GetRoom(ctx, code)
		if err != nil {
			h.writeError(ctx, w, err)
			return
		}

		if err := r.ParseForm(); err != nil {
			redirect(w, r, room.Code, room.Phase, reasonInvalid)
			return
		}

		phase, err := fn(ctx, r, room, caller)
		if err != nil {
			h.redirectFailure(ctx, w, r, room, name, err)
			return
		}
		redirect(w, r, room.Code, phase, "")
	}
}

func (h *Handlers) transition(call func(ctx context.Context, roomID, userID uuid.UUID) (*gameservice.TransitionResult, error)) roomAction {
	return func(ctx context.Context, _ *http.Request, room *gameservice.RoomView, caller Caller) (gamedomain.Phase, error) {
		result, err := call(ctx, room.ID, caller.UserID)
		if err != nil {
			return "", err
		}
		return result.To, nil
	}
}

func (h *Handlers) startGame(ctx context.Context, r *http.Request, room *gameservice.RoomView, caller Caller) (gamedomain.Phase, error) {
	storyID, err := uuid.Parse(r.PostForm.Get("story_id"))
	if err != nil {
		return "", gamedomain.Invalid("story_id", "not a story id")
	}
	result, err := h.service.StartGame(ctx, room.ID, caller.UserID, storyID)
	if err != nil {
		return "", err
	}
	return result.To, nil
}

func (h *Handlers) submitAnswer(ctx context.Context, r *http.Request, room *gameservice.RoomView, caller Caller) (gamedomain.Phase, error) {
	outcome, err := h.service.SubmitAnswer(ctx, room.ID, caller.UserID, r.PostForm.Get("text"))
	return submissionPhase(outcome, err)
}

func (h *Handlers) submitVote(ctx context.Context, r *http.Request, room *gameservice.RoomView, caller Caller) (gamedomain.Phase, error) {
	ranked, err := parseRanked(r.PostForm["answer"])
	if err != nil {
		return "", err
	}
	outcome, err := h.service.SubmitVote(ctx, room.ID, caller.UserID, ranked)
	return submissionPhase(outcome, err)
}

func (h *Handlers) submitStars(ctx context.Context, r *http.Request, room *gameservice.RoomView, caller Caller) (gamedomain.Phase, error) {
	raw := make(map[string]string)
	for key, values := range r.PostForm {
		answerID, ok := strings.CutPrefix(key, starsFieldPrefix)
		if !ok || len(values) == 0 {
			continue
		}
		raw[answerID] = values[0]
	}
	outcome, err := h.service.SubmitAudienceStars(ctx, room.ID, caller.UserID, raw)
	return submissionPhase(outcome, err)
}

// submissionPhase turns a duplicate outcome into ErrDuplicateSubmission so it
// redirects with a reason.
func submissionPhase(outcome *gameservice.SubmissionOutcome, err error) (gamedomain.Phase, error) {
	if err != nil {
		return "", err
	}
	if outcome.Status == gameservice.SubmissionDuplicate {
		return outcome.Phase, &redirectError{phase: outcome.Phase, err: gameservice.ErrDuplicateSubmission}
	}
	return outcome.Phase, nil
}

// parseRanked reads ranked answer ids. Blank entries are blank slots.
func parseRanked(values []string) ([]uuid.UUID, error) {
	ranked := make([]uuid.UUID, len(values))
	for i, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, gamedomain.Invalid("answer", fmt.Sprintf("%q is not an answer id", v))
		}
		ranked[i] = id
	}
	return ranked, nil
}

// redirectError pins the phase a failure redirects to.
type redirectError struct {
	phase gamedomain.Phase
	err   error
}

func (e *redirectError) Error() string { return e.err.Error() }
func (e *redirectError) Unwrap() error { return e.err }

// redirectFailure answers 303 to the canonical page with an error reason for
// redundant, illegal or malformed actions, and a plain status otherwise.
func (h *Handlers) redirectFailure(ctx context.Context, w http.ResponseWriter, r *http.Request, room *gameservice.RoomView, action string, err error) {
	phase := room.Phase
	var pinned *redirectError
	if errors.As(err, &pinned) {
		phase = pinned.phase
	}

	var illegal *gameservice.IllegalActionError
	var invalid *gamedomain.ValidationError
	reason := ""
	switch {
	case errors.As(err, &illegal):
		phase = illegal.Phase
		reason = strings.ReplaceAll(illegal.Reason, " ", "_")
	case errors.As(err, &invalid):
		reason = reasonInvalid
		if invalid.Field != "" {
			reason += "_" + invalid.Field
		}
	case errors.Is(err, gameservice.ErrDuplicateSubmission):
		reason = reasonDuplicate
	case errors.Is(err, gameservice.ErrConcurrencyConflict):
		reason = reasonConflict
	case errors.Is(err, gamedomain.ErrExhaustedPromptPool):
		reason = "exhausted_prompt_pool"
	default:
		h.writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "Action redirected",
		attr.ExtractCorrelationID(ctx),
		attr.String("action", action),
		attr.String("room_code", room.Code),
		attr.String("reason", reason),
	)
	redirect(w, r, room.Code, phase, reason)
}

// writeError maps missing rooms, games and rounds to 404 and everything else to 500.
func (h *Handlers) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gameservice.ErrRoomNotFound),
		errors.Is(err, gameservice.ErrGameNotFound),
		errors.Is(err, gameservice.ErrNoActiveGame),
		errors.Is(err, gameservice.ErrRoundNotFound):
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	default:
		h.logger.ErrorContext(ctx, "Request failed", attr.ExtractCorrelationID(ctx), attr.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// PagePath is the canonical page of a room in phase.
func PagePath(code string, phase gamedomain.Phase) string {
	return "/rooms/" + url.PathEscape(code) + "/" + gamedomain.CanonicalPage(phase)
}

func redirect(w http.ResponseWriter, r *http.Request, code string, phase gamedomain.Phase, reason string) {
	target := PagePath(code, phase)
	if reason != "" {
		target += "?" + url.Values{"error": {reason}}.Encode()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// --- Credits ---

func (h *Handlers) gameID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return uuid.Nil, false
	}
	return id, true
}

// HandleGetCredits returns the credits report as JSON.
func (h *Handlers) HandleGetCredits(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GameHTTP.HandleGetCredits")
	defer span.End()

	id, ok := h.gameID(w, r)
	if !ok {
		return
	}
	report, err := h.service.GetCredits(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleExportCredits serves the credits workbook.
func (h *Handlers) HandleExportCredits(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GameHTTP.HandleExportCredits")
	defer span.End()

	id, ok := h.gameID(w, r)
	if !ok {
		return
	}
	body, err := h.service.ExportCredits(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "credits-"+id.String()+".xlsx"))
	_, _ = w.Write(body)
}

// HandleCreditsChart serves the podium chart.
func (h *Handlers) HandleCreditsChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "GameHTTP.HandleCreditsChart")
	defer span.End()

	id, ok := h.gameID(w, r)
	if !ok {
		return
	}
	body, err := h.service.CreditsChart(ctx, id)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
