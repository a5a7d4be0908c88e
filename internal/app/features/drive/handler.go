package drive

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/teachdrive/teachdrive/internal/app/store/file"
	"github.com/teachdrive/teachdrive/internal/app/store/folder"
	"github.com/teachdrive/teachdrive/internal/app/system/authz"
	"github.com/teachdrive/teachdrive/internal/app/system/inputval"
	"github.com/teachdrive/teachdrive/internal/app/system/jsonutil"
	"github.com/teachdrive/teachdrive/internal/app/system/normalize"
	"github.com/teachdrive/teachdrive/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxUploadBytes caps a single upload request body.
const maxUploadBytes = 256 << 20 // 256 MiB

// Handler handles drive API requests.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a new drive handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Response shapes                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

type folderResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
	Path     string `json:"path"`
	IsShared bool   `json:"isShared"`
}

type fileResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	FolderID string `json:"folderId"`
	Path     string `json:"path"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	IsShared bool   `json:"isShared"`
}

func toFolderResponse(f *models.Folder) folderResponse {
	resp := folderResponse{
		ID:       f.ID.Hex(),
		Name:     f.Name,
		Path:     f.Path,
		IsShared: f.IsShared,
	}
	if f.ParentID != nil {
		resp.ParentID = f.ParentID.Hex()
	}
	return resp
}

func toFileResponse(f *models.File) fileResponse {
	return fileResponse{
		ID:       f.ID.Hex(),
		Name:     f.Name,
		FolderID: f.ParentID.Hex(),
		Path:     f.Path,
		MimeType: f.MimeType,
		Size:     f.Size,
		IsShared: f.IsShared,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Folder handlers                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// CreateFolderHandler handles POST /folders.
func (h *Handler) CreateFolderHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := authz.OwnerCtx(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}

	var in struct {
		Name     string `json:"name"`
		ParentID string `json:"parentId"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	f, err := h.svc.CreateFolder(r.Context(), owner, in.ParentID, in.Name)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	jsonutil.Created(w, toFolderResponse(f))
}

// GetFolderHandler handles GET /folders/{ref}: the folder and its direct
// contents.
func (h *Handler) GetFolderHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := authz.OwnerCtx(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}

	f, subfolders, files, err := h.svc.ListFolder(r.Context(), owner, chi.URLParam(r, "ref"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	folderList := make([]folderResponse, len(subfolders))
	for i := range subfolders {
		folderList[i] = toFolderResponse(&subfolders[i])
	}
	fileList := make([]fileResponse, len(files))
	for i := range files {
		fileList[i] = toFileResponse(&files[i])
	}

	jsonutil.OK(w, map[string]any{
		"folder":  toFolderResponse(f),
		"folders": folderList,
		"files":   fileList,
	})
}

// GetFolderTreeHandler handles GET /folders/{ref}/tree: the nested subtree
// projection.
func (h *Handler) GetFolderTreeHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := authz.OwnerCtx(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}

	tree, err := h.svc.FolderTree(r.Context(), owner, chi.URLParam(r, "ref"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	jsonutil.OK(w, tree)
}

// RenameFolderHandler handles PATCH /folders/{id}.
func (h *Handler) RenameFolderHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := authz.OwnerCtx(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var in struct {
		Name string `json:"name"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	f, err := h.svc.RenameFolder(r.Context(), owner, id, in.Name)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	jsonutil.OK(w, toFolderResponse(f))
}

// DeleteFolderHandler handles DELETE /folders/{id}. A non-empty folder
// returns 409 with the counts unless ?confirm=true is passed.
func (h *Handler) DeleteFolderHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := authz.OwnerCtx(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	confirm, _ := strconv.ParseBool(normalize.QueryParam(r.URL.Query().Get("confirm")))

	res, err := h.svc.DeleteFolder(r.Context(), owner, id, confirm)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	jsonutil.OK(w, map[string]any{
		"foldersDeleted": res.FoldersDeleted,
		"filesDeleted":   res.FilesDeleted,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| File handlers                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// UploadFileHandler handles POST /folders/{ref}/files with a multipart
// form; the file part must be named "file".
func (h *Handler) UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := authz.OwnerCtx(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	part, header, err := r.FormFile("file")
	if err != nil {
		jsonutil.BadRequest(w, "multipart form with a \"file\" part is required")
		return
	}
	defer part.Close()

	name := header.Filename
	if !inputval.IsValidEntryName(name) {
		jsonutil.BadRequest(w, "invalid file name")
		return
	}

	f, err := h.svc.SaveUpload(r.Context(), owner, chi.URLParam(r, "ref"),
		name, header.Header.Get("Content-Type"), part)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	jsonutil.Created(w, toFileResponse(f))
}

// RenameFileHandler handles PATCH /files/{id}.
func (h *Handler) RenameFileHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := authz.OwnerCtx(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var in struct {
		Name string `json:"name"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON payload")
		return
	}

	f, err := h.svc.RenameFile(r.Context(), owner, id, in.Name)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	jsonutil.OK(w, toFileResponse(f))
}

// GetFileHandler handles GET /files/{id}.
func (h *Handler) GetFileHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := authz.OwnerCtx(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	f, err := h.svc.GetFile(r.Context(), owner, id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	jsonutil.OK(w, toFileResponse(f))
}

// DeleteFileHandler handles DELETE /files/{id}.
func (h *Handler) DeleteFileHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := authz.OwnerCtx(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.svc.DeleteFile(r.Context(), owner, id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	jsonutil.NoContent(w)
}

// DownloadFileHandler handles GET /files/{id}/download, streaming the bytes.
func (h *Handler) DownloadFileHandler(w http.ResponseWriter, r *http.Request) {
	owner, ok := authz.OwnerCtx(r)
	if !ok {
		jsonutil.Unauthorized(w, "sign in required")
		return
	}
	id, ok := parseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	f, rc, err := h.svc.Download(r.Context(), owner, id)
	if err != nil {
		h.writeServiceError(w, r, err)
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
		h.logger.Warn("download stream interrupted",
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

// writeServiceError maps service errors onto HTTP responses.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var confirm *ConfirmationRequiredError
	var physical *PhysicalError

	switch {
	case errors.Is(err, ErrNotFound):
		jsonutil.NotFound(w, "not found")
	case errors.Is(err, ErrInvalidName):
		jsonutil.BadRequest(w, "invalid name")
	case errors.Is(err, ErrRootImmutable):
		jsonutil.BadRequest(w, "the root folder cannot be modified")
	case errors.Is(err, folder.ErrDuplicateName):
		jsonutil.Conflict(w, folder.ErrDuplicateName.Error())
	case errors.Is(err, file.ErrDuplicateName):
		jsonutil.Conflict(w, file.ErrDuplicateName.Error())
	case errors.As(err, &confirm):
		jsonutil.JSON(w, http.StatusConflict, map[string]any{
			"error":          "folder is not empty; pass confirm=true to delete",
			"subfolderCount": confirm.SubfolderCount,
			"fileCount":      confirm.FileCount,
		})
	case errors.As(err, &physical):
		h.logger.Error("physical tree operation failed",
			zap.String("op", physical.Op),
			zap.String("path", physical.Path),
			zap.Error(physical.Err))
		jsonutil.InternalError(w, "storage operation failed")
	default:
		h.logger.Error("drive request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		jsonutil.InternalError(w, "internal error")
	}
}
