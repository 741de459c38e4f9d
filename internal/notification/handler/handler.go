package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"guardhouse/internal/notification/models"
	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
	"guardhouse/pkg/platform/httputil"
	"guardhouse/pkg/requestcontext"
)

// Service defines the notification operations the handler needs.
type Service interface {
	List(ctx context.Context, scope models.Scope, unreadOnly bool) ([]*models.Event, error)
	UnreadCount(ctx context.Context, scope models.Scope) (int, error)
	MarkRead(ctx context.Context, scope models.Scope, seq id.Sequence) error
	MarkAllRead(ctx context.Context, scope models.Scope) (int, error)
	DeleteOne(ctx context.Context, scope models.Scope, seq id.Sequence) error
	DeleteAll(ctx context.Context, scope models.Scope) (int, error)
}

// Handler serves the notification inbox of the authenticated caller.
// Supervisors see their own notifications, administrators the broadcast stream.
type Handler struct {
	service Service
	logger  *zap.Logger
}

func New(service Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts the routes on r, which must already require authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/notifications", h.HandleList)
	r.Get("/notifications/unread-count", h.HandleUnreadCount)
	r.Post("/notifications/read-all", h.HandleMarkAllRead)
	r.Post("/notifications/{seq}/read", h.HandleMarkRead)
	r.Delete("/notifications/{seq}", h.HandleDeleteOne)
	r.Delete("/notifications", h.HandleDeleteAll)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	events, err := h.service.List(ctx, scopeOf(ctx), unreadOnly)
	if err != nil {
		h.fail(ctx, w, "list notifications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) HandleUnreadCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := h.service.UnreadCount(ctx, scopeOf(ctx))
	if err != nil {
		h.fail(ctx, w, "count notifications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"unread": n})
}

func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	seq, err := id.ParseSequence(chi.URLParam(r, "seq"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.MarkRead(ctx, scopeOf(ctx), seq); err != nil {
		h.fail(ctx, w, "mark notification read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := h.service.MarkAllRead(ctx, scopeOf(ctx))
	if err != nil {
		h.fail(ctx, w, "mark all notifications read", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"updated": n})
}

func (h *Handler) HandleDeleteOne(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	seq, err := id.ParseSequence(chi.URLParam(r, "seq"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteOne(ctx, scopeOf(ctx), seq); err != nil {
		h.fail(ctx, w, "delete notification", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	n, err := h.service.DeleteAll(ctx, scopeOf(ctx))
	if err != nil {
		h.fail(ctx, w, "delete notifications", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.Error("failed to "+op, zap.Error(err), zap.String("request_id", requestcontext.RequestID(ctx)))
	}
	httputil.WriteError(w, err)
}

// scopeOf derives the inbox from the authenticated principal.
func scopeOf(ctx context.Context) models.Scope {
	if requestcontext.IsAdmin(ctx) {
		return models.AdminScope()
	}
	return models.OwnerScope(requestcontext.OwnerID(ctx))
}
