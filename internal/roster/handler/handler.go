package handler

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"guardhouse/internal/roster/models"
	id "guardhouse/pkg/domain"
	dErrors "guardhouse/pkg/domain-errors"
	"guardhouse/pkg/platform/httputil"
	"guardhouse/pkg/requestcontext"
)

const (
	maxUploadBytes      = 50 << 20
	maxMultipartMemory  = 8 << 20
	formFieldData       = "data"
	formFieldDocuments  = "documents"
	formFieldProfilePic = "profile_photo"
)

// Service defines the roster operations the handler needs.
type Service interface {
	CreateDependent(ctx context.Context, ownerID id.OwnerID, req *models.CreateDependentRequest) (*models.Dependent, error)
	EditDependent(ctx context.Context, ownerID id.OwnerID, seq id.Sequence, req *models.EditDependentRequest) (*models.Dependent, error)
	TerminateDependent(ctx context.Context, ownerID id.OwnerID, seq id.Sequence, req *models.TerminateRequest) (*models.Dependent, error)
	PurgeDependent(ctx context.Context, ownerID id.OwnerID, seq id.Sequence) error
	PurgeDependentByID(ctx context.Context, dependentID id.DependentID) error
	GetDependent(ctx context.Context, ownerID id.OwnerID, seq id.Sequence) (*models.Dependent, error)
	ListDependents(ctx context.Context, ownerID id.OwnerID, search string) ([]*models.Dependent, error)

	CreateOwner(ctx context.Context, req *models.CreateOwnerRequest) (*models.Owner, error)
	GetOwner(ctx context.Context, ownerID id.OwnerID) (*models.Owner, error)
	ListOwners(ctx context.Context) ([]*models.Owner, error)
	UpdateOwner(ctx context.Context, ownerID id.OwnerID, req *models.UpdateOwnerRequest) (*models.Owner, error)
	SetOwnerStatus(ctx context.Context, ownerID id.OwnerID, status models.Status) (*models.Owner, error)
	TerminateOwner(ctx context.Context, ownerID id.OwnerID, req *models.TerminateRequest) (*models.Owner, error)
	PurgeOwner(ctx context.Context, ownerID id.OwnerID) error
	RegisterDevice(ctx context.Context, ownerID id.OwnerID, req *models.RegisterDeviceRequest) (*models.Owner, error)
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

// FileStore keeps uploaded files. References it returns are what the roster stores.
type FileStore interface {
	Put(ctx context.Context, r io.Reader, originalName string) (string, error)
	Delete(ctx context.Context, ref string) error
}

type Handler struct {
	service Service
	files   FileStore
	logger  *zap.Logger
}

// New builds the roster handler. files may be nil, in which case multipart
// uploads are rejected and only JSON bodies are accepted.
func New(service Service, files FileStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, files: files, logger: logger}
}

// Register mounts the supervisor routes. The caller's own id scopes every call.
func (h *Handler) Register(r chi.Router) {
	r.Post("/dependents", h.HandleCreateDependent)
	r.Get("/dependents", h.HandleListDependents)
	r.Get("/dependents/{seq}", h.HandleGetDependent)
	r.Patch("/dependents/{seq}", h.HandleEditDependent)
	r.Delete("/dependents/{seq}", h.HandlePurgeDependent)
	r.Post("/dependents/{seq}/terminate", h.HandleTerminateDependent)
	r.Get("/me", h.HandleMe)
	r.Put("/me/device", h.HandleRegisterDevice)
}

// RegisterAdmin mounts the administrator routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/owners", h.HandleCreateOwner)
	r.Get("/admin/owners", h.HandleListOwners)
	r.Get("/admin/owners/{id}", h.HandleGetOwner)
	r.Patch("/admin/owners/{id}", h.HandleUpdateOwner)
	r.Delete("/admin/owners/{id}", h.HandlePurgeOwner)
	r.Put("/admin/owners/{id}/status", h.HandleSetOwnerStatus)
	r.Post("/admin/owners/{id}/terminate", h.HandleTerminateOwner)
	r.Delete("/admin/dependents/{id}", h.HandleAdminPurgeDependent)
	r.Get("/admin/stats", h.HandleStats)
}

func (h *Handler) HandleCreateDependent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.CreateDependentRequest
	up, err := h.readBody(r, &req)
	if err != nil {
		h.fail(ctx, w, "read guard", err)
		return
	}
	defer up.cleanup()
	req.Documents = append(req.Documents, up.documents...)
	if up.photo != "" {
		req.ProfilePhoto = up.photo
	}

	d, err := h.service.CreateDependent(ctx, requestcontext.OwnerID(ctx), &req)
	if err != nil {
		h.discard(ctx, up.refs)
		h.fail(ctx, w, "create guard", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) HandleEditDependent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	seq, err := id.ParseSequence(chi.URLParam(r, "seq"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.EditDependentRequest
	up, err := h.readBody(r, &req)
	if err != nil {
		h.fail(ctx, w, "read guard", err)
		return
	}
	defer up.cleanup()
	req.Documents = append(req.Documents, up.documents...)
	if up.photo != "" {
		req.ProfilePhoto = &up.photo
	}

	d, err := h.service.EditDependent(ctx, requestcontext.OwnerID(ctx), seq, &req)
	if err != nil {
		h.discard(ctx, up.refs)
		h.fail(ctx, w, "update guard", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) HandleListDependents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	out, err := h.service.ListDependents(ctx, requestcontext.OwnerID(ctx), search)
	if err != nil {
		h.fail(ctx, w, "list guards", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleGetDependent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	seq, err := id.ParseSequence(chi.URLParam(r, "seq"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.service.GetDependent(ctx, requestcontext.OwnerID(ctx), seq)
	if err != nil {
		h.fail(ctx, w, "get guard", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) HandleTerminateDependent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	seq, err := id.ParseSequence(chi.URLParam(r, "seq"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.TerminateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	d, err := h.service.TerminateDependent(ctx, requestcontext.OwnerID(ctx), seq, &req)
	if err != nil {
		h.fail(ctx, w, "terminate guard", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) HandlePurgeDependent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	seq, err := id.ParseSequence(chi.URLParam(r, "seq"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.PurgeDependent(ctx, requestcontext.OwnerID(ctx), seq); err != nil {
		h.fail(ctx, w, "delete guard", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if requestcontext.IsAdmin(ctx) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "administrators have no supervisor profile"))
		return
	}
	o, err := h.service.GetOwner(ctx, requestcontext.OwnerID(ctx))
	if err != nil {
		h.fail(ctx, w, "get profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) HandleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.RegisterDeviceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	o, err := h.service.RegisterDevice(ctx, requestcontext.OwnerID(ctx), &req)
	if err != nil {
		h.fail(ctx, w, "register device", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) HandleCreateOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.CreateOwnerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	o, err := h.service.CreateOwner(ctx, &req)
	if err != nil {
		h.fail(ctx, w, "create supervisor", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, o)
}

func (h *Handler) HandleListOwners(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	out, err := h.service.ListOwners(ctx)
	if err != nil {
		h.fail(ctx, w, "list supervisors", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleGetOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := id.ParseOwnerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	o, err := h.service.GetOwner(ctx, ownerID)
	if err != nil {
		h.fail(ctx, w, "get supervisor", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) HandleUpdateOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := id.ParseOwnerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.UpdateOwnerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	o, err := h.service.UpdateOwner(ctx, ownerID, &req)
	if err != nil {
		h.fail(ctx, w, "update supervisor", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) HandleSetOwnerStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := id.ParseOwnerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.SetStatusRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	o, err := h.service.SetOwnerStatus(ctx, ownerID, req.Status)
	if err != nil {
		h.fail(ctx, w, "set supervisor status", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) HandleTerminateOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := id.ParseOwnerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req models.TerminateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	o, err := h.service.TerminateOwner(ctx, ownerID, &req)
	if err != nil {
		h.fail(ctx, w, "terminate supervisor", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) HandlePurgeOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := id.ParseOwnerID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.PurgeOwner(ctx, ownerID); err != nil {
		h.fail(ctx, w, "delete supervisor", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleAdminPurgeDependent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dependentID, err := id.ParseDependentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.PurgeDependentByID(ctx, dependentID); err != nil {
		h.fail(ctx, w, "delete guard", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.DashboardStats(ctx)
	if err != nil {
		h.fail(ctx, w, "load dashboard", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// uploads are the files a multipart request placed in the file store before
// the write was attempted.
type uploads struct {
	documents []models.DocumentInput
	photo     string
	refs      []string
	form      *multipart.Form
}

func (u *uploads) cleanup() {
	if u.form != nil {
		_ = u.form.RemoveAll()
	}
}

// readBody decodes a JSON body, or a multipart body whose "data" part holds
// the JSON and whose file parts are stored right away.
func (h *Handler) readBody(r *http.Request, v any) (*uploads, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return &uploads{}, httputil.DecodeJSON(r, v)
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart body")
	}
	up := &uploads{form: r.MultipartForm}
	if data := r.FormValue(formFieldData); data != "" {
		if err := json.Unmarshal([]byte(data), v); err != nil {
			up.cleanup()
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid data part")
		}
	}

	files := r.MultipartForm.File
	if len(files[formFieldDocuments])+len(files[formFieldProfilePic]) > 0 && h.files == nil {
		up.cleanup()
		return nil, dErrors.New(dErrors.CodeBadRequest, "file uploads are not enabled")
	}
	ctx := r.Context()
	for _, fh := range files[formFieldDocuments] {
		ref, err := h.store(ctx, fh)
		if err != nil {
			h.discard(ctx, up.refs)
			up.cleanup()
			return nil, err
		}
		up.refs = append(up.refs, ref)
		up.documents = append(up.documents, models.DocumentInput{Reference: ref, OriginalName: fh.Filename})
	}
	if photos := files[formFieldProfilePic]; len(photos) > 0 {
		ref, err := h.store(ctx, photos[0])
		if err != nil {
			h.discard(ctx, up.refs)
			up.cleanup()
			return nil, err
		}
		up.refs = append(up.refs, ref)
		up.photo = ref
	}
	return up, nil
}

func (h *Handler) store(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable file part")
	}
	defer f.Close()
	ref, err := h.files.Put(ctx, f, fh.Filename)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store file")
	}
	return ref, nil
}

// discard deletes files stored for a write that did not happen.
func (h *Handler) discard(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := h.files.Delete(context.WithoutCancel(ctx), ref); err != nil {
			h.logger.Warn("failed to discard uploaded file", zap.String("ref", ref), zap.Error(err))
		}
	}
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.Error("failed to "+op, zap.Error(err), zap.String("request_id", requestcontext.RequestID(ctx)))
	}
	httputil.WriteError(w, err)
}
