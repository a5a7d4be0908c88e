package drive

import (
	"context"

	"github.com/teachdrive/teachdrive/internal/app/system/authz"
	"github.com/teachdrive/teachdrive/internal/app/system/treepath"
	"github.com/teachdrive/teachdrive/internal/domain/models"
)

// TreeNode is one folder in a nested tree projection.
type TreeNode struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	IsShared bool        `json:"isShared"`
	Folders  []*TreeNode `json:"folders"`
	Files    []FileNode  `json:"files"`
}

// FileNode is one file in a tree projection.
type FileNode struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	IsShared bool   `json:"isShared"`
}

// FolderTree projects the subtree under the referenced folder as nested
// nodes. Two subtree queries feed the whole projection regardless of depth.
func (s *Service) FolderTree(ctx context.Context, owner authz.Owner, ref string) (*TreeNode, error) {
	root, err := s.ResolveFolder(ctx, owner, ref)
	if err != nil {
		return nil, err
	}

	folders, err := s.folders.ListBySubtree(ctx, owner.ID, root.Path)
	if err != nil {
		return nil, err
	}
	files, err := s.files.ListBySubtree(ctx, owner.ID, root.Path)
	if err != nil {
		return nil, err
	}

	return buildTree(root.Path, folders, files), nil
}

// buildTree assembles nested nodes from path-sorted subtree rows. Folders
// are sorted by path, so every parent is seen before its children; files
// attach to the node owning their parent path.
func buildTree(rootPath string, folders []models.Folder, files []models.File) *TreeNode {
	byPath := make(map[string]*TreeNode, len(folders))
	var root *TreeNode

	for i := range folders {
		f := &folders[i]
		node := &TreeNode{
			ID:       f.ID.Hex(),
			Name:     f.Name,
			Path:     f.Path,
			IsShared: f.IsShared,
			Folders:  []*TreeNode{},
			Files:    []FileNode{},
		}
		byPath[f.Path] = node

		if f.Path == rootPath {
			root = node
			continue
		}
		if parent, ok := byPath[treepath.Parent(f.Path)]; ok {
			parent.Folders = append(parent.Folders, node)
		}
	}

	for i := range files {
		f := &files[i]
		parent, ok := byPath[treepath.Parent(f.Path)]
		if !ok {
			continue
		}
		parent.Files = append(parent.Files, FileNode{
			ID:       f.ID.Hex(),
			Name:     f.Name,
			Path:     f.Path,
			MimeType: f.MimeType,
			Size:     f.Size,
			IsShared: f.IsShared,
		})
	}

	return root
}
