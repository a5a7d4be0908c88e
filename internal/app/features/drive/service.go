// Package drive implements the folder tree: a hierarchy of folder and file
// metadata kept consistent with a physical directory tree under the blob
// root.
//
// Two views of the same tree must agree at all times. Structural operations
// order their steps so a failure can only leave extra bytes on disk, never a
// metadata row describing something that is not there:
//
//   - create: metadata first, physical second. A missing directory is
//     recreated on demand, so a failed mkdir is only logged.
//   - rename and delete: physical first, metadata second. If the physical
//     step fails, the operation aborts before any row changes.
package drive

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/teachdrive/teachdrive/internal/app/store/file"
	"github.com/teachdrive/teachdrive/internal/app/store/folder"
	"github.com/teachdrive/teachdrive/internal/app/system/authz"
	"github.com/teachdrive/teachdrive/internal/app/system/blob"
	"github.com/teachdrive/teachdrive/internal/app/system/inputval"
	"github.com/teachdrive/teachdrive/internal/app/system/treepath"
	"github.com/teachdrive/teachdrive/internal/app/system/txn"
	"github.com/teachdrive/teachdrive/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// RootFolderName is the name of the folder provisioned for every account.
const RootFolderName = "Root"

// RootRef is the sentinel folder reference clients may use instead of an ID.
const RootRef = "root"

// Service implements tree operations over the metadata stores and the blob
// store.
type Service struct {
	db      *mongo.Database
	folders *folder.Store
	files   *file.Store
	blobs   *blob.Store
	logger  *zap.Logger
	locks   *ownerLocks
}

// NewService creates a drive service.
func NewService(db *mongo.Database, blobs *blob.Store, logger *zap.Logger) *Service {
	return &Service{
		db:      db,
		folders: folder.New(db),
		files:   file.New(db),
		blobs:   blobs,
		logger:  logger,
		locks:   newOwnerLocks(),
	}
}

// Folders exposes the folder store for features composed on top of the tree.
func (s *Service) Folders() *folder.Store { return s.folders }

// Files exposes the file store for features composed on top of the tree.
func (s *Service) Files() *file.Store { return s.files }

/*─────────────────────────────────────────────────────────────────────────────*
| Root provisioning and folder resolution                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// ProvisionRoot creates the owner's root folder and its physical directory.
// Called at registration; safe to call again, an existing root is returned
// as is. The root is born shared and stays that way.
func (s *Service) ProvisionRoot(ctx context.Context, owner authz.Owner) (*models.Folder, error) {
	rootPath := treepath.Join(owner.FolderSegment, RootFolderName)

	f, err := s.folders.Create(ctx, folder.CreateInput{
		Name:     RootFolderName,
		ParentID: nil,
		Path:     rootPath,
		OwnerID:  owner.ID,
		IsShared: true,
	})
	if errors.Is(err, folder.ErrDuplicateName) {
		return s.folders.GetRoot(ctx, owner.ID)
	}
	if err != nil {
		return nil, err
	}

	if err := s.blobs.CreateDir(rootPath); err != nil {
		// The directory is recreated on first write beneath it.
		s.logger.Warn("root directory creation failed",
			zap.String("path", rootPath),
			zap.Error(err))
	}
	return f, nil
}

// ResolveFolder loads a folder by reference: either the RootRef sentinel or
// a hex ObjectID. Missing and foreign folders both come back as ErrNotFound.
func (s *Service) ResolveFolder(ctx context.Context, owner authz.Owner, ref string) (*models.Folder, error) {
	if ref == "" || ref == RootRef {
		f, err := s.folders.GetRoot(ctx, owner.ID)
		return f, mapNoDocuments(err)
	}
	id, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return nil, ErrNotFound
	}
	f, err := s.folders.GetByID(ctx, owner.ID, id)
	return f, mapNoDocuments(err)
}

func mapNoDocuments(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

/*─────────────────────────────────────────────────────────────────────────────*
| Folder operations                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// CreateFolder creates a folder inside the referenced parent.
func (s *Service) CreateFolder(ctx context.Context, owner authz.Owner, parentRef, name string) (*models.Folder, error) {
	if !inputval.IsValidEntryName(name) {
		return nil, ErrInvalidName
	}

	unlock := s.locks.Lock(owner.ID.Hex())
	defer unlock()

	parent, err := s.ResolveFolder(ctx, owner, parentRef)
	if err != nil {
		return nil, err
	}

	f, err := s.folders.Create(ctx, folder.CreateInput{
		Name:     name,
		ParentID: &parent.ID,
		Path:     treepath.Join(parent.Path, name),
		OwnerID:  owner.ID,
		IsShared: inheritShared(parent),
	})
	if err != nil {
		return nil, err
	}

	if err := s.blobs.CreateDir(f.Path); err != nil {
		s.logger.Warn("folder directory creation failed",
			zap.String("path", f.Path),
			zap.Error(err))
	}

	s.logger.Info("folder created",
		zap.String("owner_id", owner.ID.Hex()),
		zap.String("path", f.Path))
	return f, nil
}

// RenameFolder renames a folder and rewrites the paths of everything beneath
// it. The physical tree moves first; only when the move succeeds are the
// metadata rows rewritten, in one transaction where supported.
func (s *Service) RenameFolder(ctx context.Context, owner authz.Owner, id primitive.ObjectID, newName string) (*models.Folder, error) {
	if !inputval.IsValidEntryName(newName) {
		return nil, ErrInvalidName
	}

	unlock := s.locks.Lock(owner.ID.Hex())
	defer unlock()

	f, err := s.folders.GetByID(ctx, owner.ID, id)
	if err != nil {
		return nil, mapNoDocuments(err)
	}
	if f.IsRoot() {
		return nil, ErrRootImmutable
	}
	if newName == f.Name {
		return f, nil
	}

	exists, err := s.folders.NameExistsInParent(ctx, owner.ID, *f.ParentID, newName, &f.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, folder.ErrDuplicateName
	}

	oldPath := f.Path
	newPath := treepath.Join(treepath.Parent(oldPath), newName)

	if err := s.blobs.MoveTree(oldPath, newPath); err != nil {
		return nil, &PhysicalError{Op: "move", Path: oldPath, Err: err}
	}

	err = txn.Run(ctx, s.db, s.logger, func(ctx context.Context) error {
		if err := s.folders.UpdateNameAndPath(ctx, f.ID, newName, newPath); err != nil {
			return err
		}
		if _, err := s.folders.RebaseSubtreePaths(ctx, owner.ID, oldPath, newPath); err != nil {
			return err
		}
		_, err := s.files.RebaseSubtreePaths(ctx, owner.ID, oldPath, newPath)
		return err
	})
	if err != nil {
		// The physical tree already moved; the metadata still names the old
		// path. Surface loudly, this needs an operator.
		s.logger.Error("metadata rewrite failed after physical move",
			zap.String("owner_id", owner.ID.Hex()),
			zap.String("old_path", oldPath),
			zap.String("new_path", newPath),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("folder renamed",
		zap.String("owner_id", owner.ID.Hex()),
		zap.String("old_path", oldPath),
		zap.String("new_path", newPath))
	return s.folders.GetByID(ctx, owner.ID, f.ID)
}

// DeleteResult reports what a folder delete removed.
type DeleteResult struct {
	FoldersDeleted int64
	FilesDeleted   int64
}

// DeleteFolder removes a folder and its entire subtree. A non-empty folder
// is only deleted when confirm is set; otherwise a ConfirmationRequiredError
// carries the counts. The physical tree is removed first; delete is
// idempotent, so a retry after a metadata failure converges.
func (s *Service) DeleteFolder(ctx context.Context, owner authz.Owner, id primitive.ObjectID, confirm bool) (*DeleteResult, error) {
	unlock := s.locks.Lock(owner.ID.Hex())
	defer unlock()

	f, err := s.folders.GetByID(ctx, owner.ID, id)
	if err != nil {
		return nil, mapNoDocuments(err)
	}
	if f.IsRoot() {
		return nil, ErrRootImmutable
	}

	subfolders, err := s.folders.CountDescendants(ctx, owner.ID, f.Path)
	if err != nil {
		return nil, err
	}
	fileCount, err := s.files.CountBySubtree(ctx, owner.ID, f.Path)
	if err != nil {
		return nil, err
	}
	if (subfolders > 0 || fileCount > 0) && !confirm {
		return nil, &ConfirmationRequiredError{
			SubfolderCount: subfolders,
			FileCount:      fileCount,
		}
	}

	if err := s.blobs.DeleteTree(f.Path); err != nil {
		return nil, &PhysicalError{Op: "delete", Path: f.Path, Err: err}
	}

	res := &DeleteResult{}
	err = txn.Run(ctx, s.db, s.logger, func(ctx context.Context) error {
		n, err := s.folders.DeleteBySubtree(ctx, owner.ID, f.Path)
		if err != nil {
			return err
		}
		res.FoldersDeleted = n
		n, err = s.files.DeleteBySubtree(ctx, owner.ID, f.Path)
		if err != nil {
			return err
		}
		res.FilesDeleted = n
		return nil
	})
	if err != nil {
		s.logger.Error("metadata delete failed after physical delete",
			zap.String("owner_id", owner.ID.Hex()),
			zap.String("path", f.Path),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("folder deleted",
		zap.String("owner_id", owner.ID.Hex()),
		zap.String("path", f.Path),
		zap.Int64("folders", res.FoldersDeleted),
		zap.Int64("files", res.FilesDeleted))
	return res, nil
}

// ListFolder returns a folder with its direct subfolders and files.
func (s *Service) ListFolder(ctx context.Context, owner authz.Owner, ref string) (*models.Folder, []models.Folder, []models.File, error) {
	f, err := s.ResolveFolder(ctx, owner, ref)
	if err != nil {
		return nil, nil, nil, err
	}
	subfolders, err := s.folders.ListByParent(ctx, owner.ID, f.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	files, err := s.files.ListByParent(ctx, owner.ID, f.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return f, subfolders, files, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| File operations                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// SaveUpload stores uploaded bytes and records the file inside the
// referenced folder. The blob lands under a uniquified storage name first;
// if the metadata insert then fails, the staged blob is removed again.
//
// The owner lock is held for the duration of the write so a concurrent
// rename cannot move the target directory out from under the upload.
func (s *Service) SaveUpload(ctx context.Context, owner authz.Owner, folderRef, name, mimeType string, r io.Reader) (*models.File, error) {
	if !inputval.IsValidEntryName(name) {
		return nil, ErrInvalidName
	}

	unlock := s.locks.Lock(owner.ID.Hex())
	defer unlock()

	parent, err := s.ResolveFolder(ctx, owner, folderRef)
	if err != nil {
		return nil, err
	}

	exists, err := s.files.NameExistsInParent(ctx, owner.ID, parent.ID, name, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, file.ErrDuplicateName
	}

	storagePath := treepath.Join(parent.Path, storageName(name))
	size, err := s.blobs.WriteBlob(storagePath, r)
	if err != nil {
		return nil, &PhysicalError{Op: "write", Path: storagePath, Err: err}
	}

	f, err := s.files.Create(ctx, file.CreateInput{
		Name:            name,
		ParentID:        parent.ID,
		Path:            treepath.Join(parent.Path, name),
		StorageLocation: storagePath,
		MimeType:        mimeType,
		Size:            size,
		OwnerID:         owner.ID,
		IsShared:        inheritShared(parent),
	})
	if err != nil {
		if cleanupErr := s.blobs.DeleteBlob(storagePath); cleanupErr != nil {
			s.logger.Warn("failed to remove staged blob after metadata failure",
				zap.String("path", storagePath),
				zap.Error(cleanupErr))
		}
		return nil, err
	}

	s.logger.Info("file uploaded",
		zap.String("owner_id", owner.ID.Hex()),
		zap.String("path", f.Path),
		zap.Int64("size", size))
	return f, nil
}

// RenameFile renames a file, moving its blob first.
func (s *Service) RenameFile(ctx context.Context, owner authz.Owner, id primitive.ObjectID, newName string) (*models.File, error) {
	if !inputval.IsValidEntryName(newName) {
		return nil, ErrInvalidName
	}

	unlock := s.locks.Lock(owner.ID.Hex())
	defer unlock()

	f, err := s.files.GetByID(ctx, owner.ID, id)
	if err != nil {
		return nil, mapNoDocuments(err)
	}
	if newName == f.Name {
		return f, nil
	}

	exists, err := s.files.NameExistsInParent(ctx, owner.ID, f.ParentID, newName, &f.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, file.ErrDuplicateName
	}

	newPath := treepath.Join(treepath.Parent(f.Path), newName)
	newStorage := treepath.Join(treepath.Parent(f.StorageLocation), storageName(newName))

	if err := s.blobs.MoveTree(f.StorageLocation, newStorage); err != nil {
		return nil, &PhysicalError{Op: "move", Path: f.StorageLocation, Err: err}
	}

	if err := s.files.Rename(ctx, f.ID, newName, newPath, newStorage); err != nil {
		return nil, err
	}
	return s.files.GetByID(ctx, owner.ID, f.ID)
}

// DeleteFile removes a file's blob and metadata. The blob goes first; blob
// deletes are idempotent so a metadata failure can simply be retried.
func (s *Service) DeleteFile(ctx context.Context, owner authz.Owner, id primitive.ObjectID) error {
	unlock := s.locks.Lock(owner.ID.Hex())
	defer unlock()

	f, err := s.files.GetByID(ctx, owner.ID, id)
	if err != nil {
		return mapNoDocuments(err)
	}

	if err := s.blobs.DeleteBlob(f.StorageLocation); err != nil {
		return &PhysicalError{Op: "delete", Path: f.StorageLocation, Err: err}
	}
	return s.files.Delete(ctx, owner.ID, f.ID)
}

// Download returns a file's metadata and a reader over its bytes. The
// caller closes the reader.
func (s *Service) Download(ctx context.Context, owner authz.Owner, id primitive.ObjectID) (*models.File, io.ReadCloser, error) {
	f, err := s.files.GetByID(ctx, owner.ID, id)
	if err != nil {
		return nil, nil, mapNoDocuments(err)
	}
	rc, err := s.blobs.ReadBlob(f.StorageLocation)
	if err != nil {
		return nil, nil, &PhysicalError{Op: "read", Path: f.StorageLocation, Err: err}
	}
	return f, rc, nil
}

// GetFile loads a file by ID.
func (s *Service) GetFile(ctx context.Context, owner authz.Owner, id primitive.ObjectID) (*models.File, error) {
	f, err := s.files.GetByID(ctx, owner.ID, id)
	return f, mapNoDocuments(err)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// inheritShared decides the shared flag of a new entry. Entries inside a
// shared folder are flagged shared so the denormalized flag covers whole
// subtrees. The root's flag is definitional rather than a share action, so
// direct children of the root start unshared.
func inheritShared(parent *models.Folder) bool {
	return parent.IsShared && !parent.IsRoot()
}

// storageName uniquifies a filename for storage on disk: the blob name
// carries a random suffix before the extension so re-uploads of the same
// logical name never collide physically.
func storageName(name string) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return base + "-" + uuid.NewString()[:8] + ext
}
