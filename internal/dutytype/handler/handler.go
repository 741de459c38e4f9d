package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"guardhouse/internal/dutytype/models"
	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
	"guardhouse/pkg/platform/httputil"
)

type Service interface {
	List(ctx context.Context) ([]*models.DutyType, error)
	Create(ctx context.Context, req *models.CreateRequest) (*models.DutyType, error)
	Delete(ctx context.Context, dutyTypeID id.DutyTypeID) error
}

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

// Register mounts the read route for any authenticated caller.
func (h *Handler) Register(r chi.Router) {
	r.Get("/duty-types", h.HandleList)
}

// RegisterAdmin mounts the management routes; r must require the admin role.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/duty-types", h.HandleCreate)
	r.Delete("/admin/duty-types/{id}", h.HandleDelete)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.List(r.Context())
	if err != nil {
		h.fail(w, "list duty types", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, types)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	dt, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.fail(w, "create duty type", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, dt)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	dutyTypeID, err := id.ParseDutyTypeID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), dutyTypeID); err != nil {
		h.fail(w, "delete duty type", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.Error("failed to "+op, zap.Error(err))
	}
	httputil.WriteError(w, err)
}
