// Package sharing implements the shared flag over the folder tree: marking
// subtrees shared or private and serving the anonymous public view.
//
// The flag is denormalized onto every row so the public read path never
// walks ancestors. Share stamps a whole subtree; unshare clears only rows
// currently shared, leaving rows covered by an enclosing share alone.
package sharing

import (
	"context"
	"errors"
	"io"

	"github.com/teachdrive/teachdrive/internal/app/features/drive"
	userstore "github.com/teachdrive/teachdrive/internal/app/store/users"
	"github.com/teachdrive/teachdrive/internal/app/system/authz"
	"github.com/teachdrive/teachdrive/internal/app/system/txn"
	"github.com/teachdrive/teachdrive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Manager implements share and unshare over the drive service's stores and
// the anonymous public view keyed by the owner's folder segment.
type Manager struct {
	db     *mongo.Database
	drive  *drive.Service
	users  *userstore.Store
	logger *zap.Logger
}

// NewManager creates a sharing manager over an existing drive service.
func NewManager(db *mongo.Database, driveSvc *drive.Service, logger *zap.Logger) *Manager {
	return &Manager{
		db:     db,
		drive:  driveSvc,
		users:  userstore.New(db),
		logger: logger,
	}
}

// ShareResult reports how many rows a share or unshare touched.
type ShareResult struct {
	FoldersChanged int64
	FilesChanged   int64
}

// ShareFolder marks a folder and everything beneath it shared. Sharing an
// already shared subtree is a no-op reported as zero changes.
func (m *Manager) ShareFolder(ctx context.Context, owner authz.Owner, id primitive.ObjectID) (*ShareResult, error) {
	return m.setFolderShared(ctx, owner, id, true)
}

// UnshareFolder clears the shared flag on a folder and its subtree. Only
// rows currently shared are touched. The root cannot be unshared.
func (m *Manager) UnshareFolder(ctx context.Context, owner authz.Owner, id primitive.ObjectID) (*ShareResult, error) {
	return m.setFolderShared(ctx, owner, id, false)
}

func (m *Manager) setFolderShared(ctx context.Context, owner authz.Owner, id primitive.ObjectID, shared bool) (*ShareResult, error) {
	f, err := m.drive.Folders().GetByID(ctx, owner.ID, id)
	if err != nil {
		return nil, mapNoDocuments(err)
	}
	if !shared && f.IsRoot() {
		return nil, drive.ErrRootImmutable
	}

	// Clearing filters on rows already shared; setting stamps every row.
	onlyShared := !shared

	res := &ShareResult{}
	err = txn.Run(ctx, m.db, m.logger, func(ctx context.Context) error {
		n, err := m.drive.Folders().SetSharedBySubtree(ctx, owner.ID, f.Path, shared, onlyShared)
		if err != nil {
			return err
		}
		res.FoldersChanged = n
		n, err = m.drive.Files().SetSharedBySubtree(ctx, owner.ID, f.Path, shared, onlyShared)
		if err != nil {
			return err
		}
		res.FilesChanged = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("folder share flag updated",
		zap.String("owner_id", owner.ID.Hex()),
		zap.String("path", f.Path),
		zap.Bool("shared", shared),
		zap.Int64("folders", res.FoldersChanged),
		zap.Int64("files", res.FilesChanged))
	return res, nil
}

// ShareFile marks a single file shared.
func (m *Manager) ShareFile(ctx context.Context, owner authz.Owner, id primitive.ObjectID) error {
	return m.setFileShared(ctx, owner, id, true)
}

// UnshareFile clears the shared flag on a single file.
func (m *Manager) UnshareFile(ctx context.Context, owner authz.Owner, id primitive.ObjectID) error {
	return m.setFileShared(ctx, owner, id, false)
}

func (m *Manager) setFileShared(ctx context.Context, owner authz.Owner, id primitive.ObjectID, shared bool) error {
	f, err := m.drive.Files().GetByID(ctx, owner.ID, id)
	if err != nil {
		return mapNoDocuments(err)
	}
	if f.IsShared == shared {
		return nil
	}
	return m.drive.Files().SetShared(ctx, owner.ID, f.ID, shared)
}

// SharedTree projects the shared portion of the subtree under the referenced
// folder. The target itself must be shared; a private target is reported as
// not found so callers cannot distinguish private from absent.
func (m *Manager) SharedTree(ctx context.Context, owner authz.Owner, ref string) (*drive.TreeNode, error) {
	f, err := m.drive.ResolveFolder(ctx, owner, ref)
	if err != nil {
		return nil, err
	}
	if !f.IsShared {
		return nil, drive.ErrNotFound
	}

	tree, err := m.drive.FolderTree(ctx, owner, ref)
	if err != nil {
		return nil, err
	}
	pruneUnshared(tree)
	return tree, nil
}

// pruneUnshared removes unshared folders and files from a tree in place. An
// unshared folder hides its whole subtree regardless of flags below it.
func pruneUnshared(n *drive.TreeNode) {
	folders := n.Folders[:0]
	for _, child := range n.Folders {
		if child.IsShared {
			pruneUnshared(child)
			folders = append(folders, child)
		}
	}
	n.Folders = folders

	files := n.Files[:0]
	for _, f := range n.Files {
		if f.IsShared {
			files = append(files, f)
		}
	}
	n.Files = files
}

/*─────────────────────────────────────────────────────────────────────────────*
| Anonymous public view                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// ResolveOwner looks up an owner by folder segment, the public identifier
// used on anonymous endpoints.
func (m *Manager) ResolveOwner(ctx context.Context, segment string) (authz.Owner, error) {
	u, err := m.users.GetBySegment(ctx, segment)
	if err != nil {
		return authz.Owner{}, mapNoDocuments(err)
	}
	return authz.Owner{
		ID:            u.ID,
		Username:      u.Username,
		FolderSegment: u.FolderSegment,
	}, nil
}

// PublicTree serves the shared tree of the owner identified by segment.
func (m *Manager) PublicTree(ctx context.Context, segment, ref string) (*drive.TreeNode, error) {
	owner, err := m.ResolveOwner(ctx, segment)
	if err != nil {
		return nil, err
	}
	return m.SharedTree(ctx, owner, ref)
}

// PublicDownload streams a shared file of the owner identified by segment.
// Private files are reported as not found.
func (m *Manager) PublicDownload(ctx context.Context, segment string, fileID primitive.ObjectID) (*models.File, io.ReadCloser, error) {
	owner, err := m.ResolveOwner(ctx, segment)
	if err != nil {
		return nil, nil, err
	}
	f, err := m.drive.GetFile(ctx, owner, fileID)
	if err != nil {
		return nil, nil, err
	}
	if !f.IsShared {
		return nil, nil, drive.ErrNotFound
	}
	return m.drive.Download(ctx, owner, fileID)
}

func mapNoDocuments(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return drive.ErrNotFound
	}
	return err
}
