package sharing

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/teachdrive/teachdrive/internal/app/features/drive"
	"github.com/teachdrive/teachdrive/internal/app/system/authz"
	"github.com/teachdrive/teachdrive/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler handles sharing API requests.
type Handler struct {
	mgr    *Manager
	logger *zap.Logger
}

// NewHandler creates a new sharing handler.
func NewHandler(mgr *Manager, logger *zap.Logger) *Handler {
	return &Handler{mgr: mgr, logger: logger}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Owner-facing handlers                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// ShareFolderHandler handles POST /folders/{id}/share.
func (h *Handler) ShareFolderHandler(w http.ResponseWriter, r *http.Request) {
	h.setFolderShared(w, r, true)
}

// UnshareFolderHandler handles POST /folders/{id}/unshare.
func (h *Handler) UnshareFolderHandler(w http.ResponseWriter, r *http.Request) {
	h.setFolderShared(w, r, false)
}

func (h *Handler) setFolderShared(w http.ResponseWriter, r *http.Request, shared bool) {
	owner, ok := authz.OwnerCtx(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var res *ShareResult
	var err error
	if shared {
		res, err = h.mgr.ShareFolder(r.Context(), owner, id)
	} else {
		res, err = h.mgr.UnshareFolder(r.Context(), owner, id)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonutil.OK(w, map[string]any{
		"shared":         shared,
		"foldersChanged": res.FoldersChanged,
		"filesChanged":   res.FilesChanged,
	})
}

// ShareFileHandler handles POST /files/{id}/share.
func (h *Handler) ShareFileHandler(w http.ResponseWriter, r *http.Request) {
	h.setFileShared(w, r, true)
}

// UnshareFileHandler handles POST /files/{id}/unshare.
func (h *Handler) UnshareFileHandler(w http.ResponseWriter, r *http.Request) {
	h.setFileShared(w, r, false)
}

func (h *Handler) setFileShared(w http.ResponseWriter, r *http.Request, shared bool) {
	owner, ok := authz.OwnerCtx(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var err error
	if shared {
		err = h.mgr.ShareFile(r.Context(), owner, id)
	} else {
		err = h.mgr.UnshareFile(r.Context(), owner, id)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonutil.OK(w, map[string]any{"shared": shared})
}

// SharedTreeHandler handles GET /folders/{ref}/shared: the owner's preview
// of what the public sees.
func (h *Handler) SharedTreeHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := authz.OwnerCtx(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}

	tree, err := h.mgr.SharedTree(r.Context(), owner, chi.URLParam(r, "ref"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonutil.OK(w, tree)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Anonymous public handlers                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// PublicTreeHandler handles GET /{segment} and GET /{segment}/folders/{ref}/tree.
func (h *Handler) PublicTreeHandler(w http.ResponseWriter, r *http.Request) {
	segment := chi.URLParam(r, "segment")
	ref := chi.URLParam(r, "ref")

	tree, err := h.mgr.PublicTree(r.Context(), segment, ref)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	jsonutil.OK(w, tree)
}

// PublicDownloadHandler handles GET /{segment}/files/{id}/download.
func (h *Handler) PublicDownloadHandler(w http.ResponseWriter, r *http.Request) {
	segment := chi.URLParam(r, "segment")
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	f, rc, err := h.mgr.PublicDownload(r.Context(), segment, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer rc.Close()

	ct := f.MimeType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.Name+`"`)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("public download stream interrupted",
			zap.String("file_id", f.ID.Hex()),
			zap.Error(err))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func parseID(w http.ResponseWriter, raw string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		jsonutil.BadRequest(w, "invalid ID")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var physical *drive.PhysicalError

	switch {
	case errors.Is(err, drive.ErrNotFound):
		jsonutil.NotFound(w, "not found")
	case errors.Is(err, drive.ErrRootImmutable):
		jsonutil.BadRequest(w, "the root folder cannot be unshared")
	case errors.As(err, &physical):
		h.logger.Error("physical read failed",
			zap.String("op", physical.Op),
			zap.String("path", physical.Path),
			zap.Error(physical.Err))
		jsonutil.InternalError(w, "storage operation failed")
	default:
		h.logger.Error("sharing request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		jsonutil.InternalError(w, "internal error")
	}
}
