package sharing

import (
	"net/http"

	"github.com/teachdrive/teachdrive/internal/app/system/apicors"
	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the owner-facing sharing endpoints.
//
// When mounted at /api/sharing:
//   - POST /api/sharing/folders/{id}/share    - Share folder subtree
//   - POST /api/sharing/folders/{id}/unshare  - Unshare folder subtree
//   - POST /api/sharing/files/{id}/share      - Share single file
//   - POST /api/sharing/files/{id}/unshare    - Unshare single file
//   - GET  /api/sharing/folders/{ref}/shared  - Preview of the public view
//
// Authentication middleware is applied by the caller when mounting.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Route("/folders", func(fr chi.Router) {
		fr.Post("/{id}/share", h.ShareFolderHandler)
		fr.Post("/{id}/unshare", h.UnshareFolderHandler)
		fr.Get("/{ref}/shared", h.SharedTreeHandler)
	})
	r.Route("/files", func(fr chi.Router) {
		fr.Post("/{id}/share", h.ShareFileHandler)
		fr.Post("/{id}/unshare", h.UnshareFileHandler)
	})

	return r
}

// PublicRoutes returns a router with the anonymous shared-tree endpoints.
//
// When mounted at /shared:
//   - GET /shared/{segment}                     - Owner's shared tree from the root
//   - GET /shared/{segment}/folders/{ref}/tree  - Shared subtree
//   - GET /shared/{segment}/files/{id}/download - Download a shared file
//
// No authentication; CORS is permissive since no cookies are involved.
func PublicRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(apicors.Middleware())

	r.Get("/{segment}", h.PublicTreeHandler)
	r.Get("/{segment}/folders/{ref}/tree", h.PublicTreeHandler)
	r.Get("/{segment}/files/{id}/download", h.PublicDownloadHandler)

	return r
}
