// Package handler is the thin HTTP layer over the matching façade. It
// delegates to the service without embedding business logic so transport
// concerns remain isolated, and it preserves the façade's API shape across the
// process boundary.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"duomatch/internal/matching/models"
	"duomatch/internal/matching/service"
	"duomatch/internal/platform/middleware"
	dErrors "duomatch/pkg/domain-errors"
)

// Service defines the matching operations the HTTP layer exposes.
type Service interface {
	SendInvite(ctx context.Context, fromUserID, toUserID, fromName, toName string) (*models.Invite, error)
	RespondToInvite(ctx context.Context, inviteID string, accept bool) (*service.RespondResult, error)
	GetPendingInvites(ctx context.Context, userID string) ([]models.Invite, error)
	GetSentInvites(ctx context.Context, userID string) ([]models.Invite, error)
	GetUserGroup(ctx context.Context, userID string) (*models.Group, error)
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	GetAllGroups(ctx context.Context) ([]models.Group, error)
	LeaveGroup(ctx context.Context, userID string) error
	ClearAllData(ctx context.Context) error
	Health(ctx context.Context) error
}

// Handler handles matching endpoints.
type Handler struct {
	logger   *slog.Logger
	matching Service
}

// New creates a matching Handler.
func New(matching Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, matching: matching}
}

// Register mounts the matching routes with their middleware chain.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)

	router.Post("/invites", h.handleSendInvite)
	router.Post("/invites/{inviteID}/respond", h.handleRespondToInvite)
	router.Get("/users/{userID}/invites/pending", h.handlePendingInvites)
	router.Get("/users/{userID}/invites/sent", h.handleSentInvites)
	router.Get("/users/{userID}/group", h.handleUserGroup)
	router.Delete("/users/{userID}/group", h.handleLeaveGroup)
	router.Get("/groups", h.handleAllGroups)
	router.Get("/groups/{groupID}", h.handleGroup)
	router.Post("/admin/reset", h.handleClearAllData)
	router.Get("/healthz", h.handleHealth)

	r.Mount("/", router)
}

type sendInviteRequest struct {
	FromUserID   string `json:"from_user_id"`
	ToUserID     string `json:"to_user_id"`
	FromUserName string `json:"from_user_name"`
	ToUserName   string `json:"to_user_name"`
}

func (h *Handler) handleSendInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req sendInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	invite, err := h.matching.SendInvite(ctx, req.FromUserID, req.ToUserID, req.FromUserName, req.ToUserName)
	if err != nil {
		h.logFailure(ctx, "send invite failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, invite)
}

type respondRequest struct {
	Accept bool `json:"accept"`
}

type respondResponse struct {
	Invite  *models.Invite `json:"invite"`
	GroupID string         `json:"group_id,omitempty"`
}

func (h *Handler) handleRespondToInvite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	inviteID := chi.URLParam(r, "inviteID")

	var req respondRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.matching.RespondToInvite(ctx, inviteID, req.Accept)
	if err != nil {
		h.logFailure(ctx, "respond to invite failed", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, respondResponse{Invite: result.Invite, GroupID: result.GroupID})
}

func (h *Handler) handlePendingInvites(w http.ResponseWriter, r *http.Request) {
	invites, err := h.matching.GetPendingInvites(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invitesPayload(invites))
}

func (h *Handler) handleSentInvites(w http.ResponseWriter, r *http.Request) {
	invites, err := h.matching.GetSentInvites(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invitesPayload(invites))
}

func (h *Handler) handleUserGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.matching.GetUserGroup(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if group == nil {
		writeJSON(w, http.StatusOK, map[string]*models.Group{"group": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]*models.Group{"group": group})
}

func (h *Handler) handleLeaveGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.matching.LeaveGroup(ctx, chi.URLParam(r, "userID")); err != nil {
		h.logFailure(ctx, "leave group failed", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAllGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.matching.GetAllGroups(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	writeJSON(w, http.StatusOK, map[string][]models.Group{"groups": groups})
}

func (h *Handler) handleGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.matching.GetGroup(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (h *Handler) handleClearAllData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.matching.ClearAllData(ctx); err != nil {
		h.logFailure(ctx, "clear all data failed", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.matching.Health(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
}

func invitesPayload(invites []models.Invite) map[string][]models.Invite {
	if invites == nil {
		invites = []models.Invite{}
	}
	return map[string][]models.Invite{"invites": invites}
}

// writeError centralizes domain error translation to HTTP responses so every
// handler returns the same JSON error envelope.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(dErrors.ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": string(code),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
