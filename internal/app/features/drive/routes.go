package drive

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the drive API endpoints.
//
// When mounted at /api/drive:
//   - POST   /api/drive/folders              - Create folder
//   - GET    /api/drive/folders/{ref}        - Folder with direct contents
//   - GET    /api/drive/folders/{ref}/tree   - Nested subtree projection
//   - PATCH  /api/drive/folders/{id}         - Rename folder
//   - DELETE /api/drive/folders/{id}         - Delete folder (?confirm=true)
//   - POST   /api/drive/folders/{ref}/files  - Upload file (multipart)
//   - GET    /api/drive/files/{id}           - File metadata
//   - GET    /api/drive/files/{id}/download  - Download file bytes
//   - PATCH  /api/drive/files/{id}           - Rename file
//   - DELETE /api/drive/files/{id}           - Delete file
//
// {ref} accepts the sentinel "root" or a folder ID; {id} must be an ID.
// Authentication middleware is applied by the caller when mounting.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Route("/folders", func(fr chi.Router) {
		fr.Post("/", h.CreateFolderHandler)
		fr.Get("/{ref}", h.GetFolderHandler)
		fr.Get("/{ref}/tree", h.GetFolderTreeHandler)
		fr.Patch("/{id}", h.RenameFolderHandler)
		fr.Delete("/{id}", h.DeleteFolderHandler)
		fr.Post("/{ref}/files", h.UploadFileHandler)
	})

	r.Route("/files", func(fr chi.Router) {
		fr.Get("/{id}", h.GetFileHandler)
		fr.Get("/{id}/download", h.DownloadFileHandler)
		fr.Patch("/{id}", h.RenameFileHandler)
		fr.Delete("/{id}", h.DeleteFileHandler)
	})

	return r
}
