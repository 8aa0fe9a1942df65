// Package blobstore implements ports.BlobStore on the local filesystem and on
// SQL databases.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"petitiondesk/domain/core"
	apperrors "petitiondesk/internal/errors"
	"petitiondesk/internal/fsutil"
	"petitiondesk/ports"
)

const blobExt = ".blob"

// Local stores each blob as one file under a base directory
type Local struct {
	basePath string
}

var _ ports.BlobStore = (*Local)(nil)

// NewLocal creates the base directory if needed
func NewLocal(basePath string) (*Local, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, apperrors.StorageError("failed to create base directory", err)
	}
	return &Local{basePath: basePath}, nil
}

// Path returns the file backing name
func (l *Local) Path(name string) string {
	return filepath.Join(l.basePath, name+blobExt)
}

// Put writes to a temp file in the same directory and renames it over the
// previous blob, so readers never see a partial write
func (l *Local) Put(ctx context.Context, name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	err := fsutil.WriteFileAtomic(l.Path(name), 0o644, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return apperrors.StorageError(fmt.Sprintf("failed to write blob %s", name), err)
	}
	return nil
}

func (l *Local) Get(ctx context.Context, name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.NewNotFoundError("blob", name)
		}
		return nil, apperrors.StorageError(fmt.Sprintf("failed to read blob %s", name), err)
	}
	return data, nil
}

func (l *Local) Exists(ctx context.Context, name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}
	_, err := os.Stat(l.Path(name))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, apperrors.StorageError(fmt.Sprintf("failed to stat blob %s", name), err)
	}
}

// Delete removes name; deleting an absent blob is not an error
func (l *Local) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if err := os.Remove(l.Path(name)); err != nil && !os.IsNotExist(err) {
		return apperrors.StorageError(fmt.Sprintf("failed to delete blob %s", name), err)
	}
	return nil
}

func (l *Local) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, apperrors.StorageError("failed to list blobs", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), blobExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), blobExt))
	}
	sort.Strings(names)
	return names, nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return apperrors.InvalidInput(fmt.Sprintf("invalid blob name %q", name))
	}
	return nil
}
