package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hyperengineering/liferpg/internal/ledger"
	"github.com/hyperengineering/liferpg/internal/persistence"
	"github.com/hyperengineering/liferpg/internal/types"
	"github.com/hyperengineering/liferpg/internal/validation"
)

// maxImportBytes caps the size of an uploaded export document.
const maxImportBytes = 1 << 20

// Profile is the controller the handlers drive.
type Profile interface {
	Dashboard(limit int) types.Dashboard
	Quests() []types.Quest
	Quest(id string) (types.Quest, error)
	Achievements(limit int) []types.Achievement
	Achievement(id string) (types.Achievement, error)
	CreateQuest(ctx context.Context, in types.NewQuest) (types.MutationResult, error)
	ToggleQuest(ctx context.Context, id string) (types.MutationResult, error)
	EditQuest(ctx context.Context, id string, patch types.QuestPatch) (types.MutationResult, error)
	GrantBonus(ctx context.Context, title string, xp int) (types.MutationResult, error)
	Export() ([]byte, error)
	Import(ctx context.Context, data []byte) (types.MutationResult, error)
	Reset(ctx context.Context, forgetPIN bool) (types.MutationResult, error)
	EnterPrivate(ctx context.Context, candidate string) (types.GateResult, error)
	ExitPrivate(ctx context.Context) types.GateResult
	ChangePIN(ctx context.Context, current, next, confirm string) error
	DisablePIN(ctx context.Context, current string) (types.GateResult, error)
}

// Stream serves the websocket render feed.
type Stream interface {
	http.Handler
	Subscribers() int
}

// Backups runs and links export backups.
type Backups interface {
	Backup(ctx context.Context) (string, error)
	DownloadURL(ctx context.Context) (string, time.Time, error)
}

// BackupResponse is returned by the backup endpoints.
type BackupResponse struct {
	Path      string     `json:"path,omitempty"`
	URL       string     `json:"url,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Handler implements the API handlers
type Handler struct {
	profile Profile
	stream  Stream
	backups Backups
	version string
}

// NewHandler creates a new Handler. stream may be nil, in which case /ws is
// not available.
func NewHandler(p Profile, stream Stream, version string) *Handler {
	return &Handler{
		profile: p,
		stream:  stream,
		version: version,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return false
	}
	return true
}

// parseLimit reads the optional ?limit= query parameter. Absent means all.
func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("limit must be a non-negative integer")
	}
	return n, nil
}

// WithBackups enables the /backup endpoints.
func (h *Handler) WithBackups(b Backups) *Handler {
	h.backups = b
	return h
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	d := h.profile.Dashboard(0)
	resp := types.HealthResponse{
		Status:        "healthy",
		Version:       h.version,
		SchemaVersion: ledger.SchemaVersion,
		Level:         d.Level,
		QuestCount:    d.TotalQuests,
	}
	if h.stream != nil {
		resp.Subscribers = h.stream.Subscribers()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Dashboard handles GET /api/v1/dashboard
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.profile.Dashboard(limit))
}

// ListQuests handles GET /api/v1/quests
func (h *Handler) ListQuests(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.profile.Quests())
}

// CreateQuest handles POST /api/v1/quests
func (h *Handler) CreateQuest(w http.ResponseWriter, r *http.Request) {
	var req types.NewQuest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateNewQuest(req); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	res, err := h.profile.CreateQuest(r.Context(), req)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// EditQuest handles PATCH /api/v1/quests/{id}
func (h *Handler) EditQuest(w http.ResponseWriter, r *http.Request) {
	var patch types.QuestPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if errs := validation.ValidateQuestPatch(patch); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	res, err := h.profile.EditQuest(r.Context(), MustQuestIDFromContext(r.Context()), patch)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetQuest handles GET /api/v1/quests/{id}
func (h *Handler) GetQuest(w http.ResponseWriter, r *http.Request) {
	q, err := h.profile.Quest(MustQuestIDFromContext(r.Context()))
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// ToggleQuest handles POST /api/v1/quests/{id}/toggle
func (h *Handler) ToggleQuest(w http.ResponseWriter, r *http.Request) {
	res, err := h.profile.ToggleQuest(r.Context(), MustQuestIDFromContext(r.Context()))
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Achievements handles GET /api/v1/achievements
func (h *Handler) Achievements(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		WriteProblem(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.profile.Achievements(limit))
}

// GetAchievement handles GET /api/v1/achievements/{id}
func (h *Handler) GetAchievement(w http.ResponseWriter, r *http.Request) {
	a, err := h.profile.Achievement(MustQuestIDFromContext(r.Context()))
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GrantBonus handles POST /api/v1/achievements/bonus
func (h *Handler) GrantBonus(w http.ResponseWriter, r *http.Request) {
	var req types.BonusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidateBonus(req.Title, req.XP); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	res, err := h.profile.GrantBonus(r.Context(), req.Title, req.XP)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Export handles GET /api/v1/export. The body is the persisted document.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.profile.Export()
	if err != nil {
		MapError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", persistence.ExportFilename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// Import handles POST /api/v1/import. The body replaces the whole state.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteProblem(w, r, http.StatusRequestEntityTooLarge, fmt.Sprintf("Import exceeds %d bytes", maxImportBytes))
			return
		}
		WriteProblem(w, r, http.StatusBadRequest, "Could not read request body")
		return
	}
	res, err := h.profile.Import(r.Context(), data)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Reset handles POST /api/v1/reset. The body is optional.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	var req types.ResetRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			WriteProblem(w, r, http.StatusBadRequest, fmt.Sprintf("Invalid JSON: %s", err.Error()))
			return
		}
	}
	res, err := h.profile.Reset(r.Context(), req.ForgetPIN)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// EnterPrivate handles POST /api/v1/private/enter
func (h *Handler) EnterPrivate(w http.ResponseWriter, r *http.Request) {
	var req types.PINRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidatePIN("pin", req.PIN); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	res, err := h.profile.EnterPrivate(r.Context(), req.PIN)
	if err != nil {
		MapError(w, r, err)
		return
	}
	if !res.Granted {
		MapError(w, r, ledger.ErrMismatch)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ExitPrivate handles POST /api/v1/private/exit
func (h *Handler) ExitPrivate(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.profile.ExitPrivate(r.Context()))
}

// ChangePIN handles PUT /api/v1/pin
func (h *Handler) ChangePIN(w http.ResponseWriter, r *http.Request) {
	var req types.ChangePINRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidatePIN("new", req.New); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	if err := h.profile.ChangePIN(r.Context(), req.Current, req.New, req.Confirm); err != nil {
		MapError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DisablePIN handles DELETE /api/v1/pin. The current PIN is required.
func (h *Handler) DisablePIN(w http.ResponseWriter, r *http.Request) {
	var req types.DisablePINRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if errs := validation.ValidatePIN("current", req.Current); len(errs) > 0 {
		WriteProblemWithErrors(w, r, "Request contains invalid fields", errs)
		return
	}
	res, err := h.profile.DisablePIN(r.Context(), req.Current)
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Stream handles GET /api/v1/ws
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.stream == nil {
		WriteProblem(w, r, http.StatusNotFound, "Live updates are not enabled")
		return
	}
	h.stream.ServeHTTP(w, r)
}

// RunBackup handles POST /api/v1/backup
func (h *Handler) RunBackup(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		WriteProblem(w, r, http.StatusNotFound, "Backups are not enabled")
		return
	}
	path, err := h.backups.Backup(r.Context())
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BackupResponse{Path: path})
}

// BackupURL handles GET /api/v1/backup
func (h *Handler) BackupURL(w http.ResponseWriter, r *http.Request) {
	if h.backups == nil {
		WriteProblem(w, r, http.StatusNotFound, "Backups are not enabled")
		return
	}
	link, expiry, err := h.backups.DownloadURL(r.Context())
	if err != nil {
		MapError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BackupResponse{URL: link, ExpiresAt: &expiry})
}
