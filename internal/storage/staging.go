// staging.go
//
// P3DV catalog: local 3D model library host with offline license activation
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of p3dv-catalog.
// p3dv-catalog is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// p3dv-catalog is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with p3dv-catalog.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/localnerve/p3dv-catalog/internal/types"
	"github.com/spf13/afero"
)

const (
	ModelsDir     = "models"
	ThumbnailsDir = "thumbnails"
	trashDir      = ".trash"
)

var allowedExtensions = map[string]bool{
	".glb":  true,
	".gltf": true,
}

// StagedAsset describes a binary copied into the managed root.
type StagedAsset struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Manager owns the managed assets root: it stages model binaries under
// deterministic names and answers the serving bridge.
type Manager struct {
	fs       afero.Fs
	root     string
	maxBytes int64
	log      *slog.Logger
}

// NewManager prepares the managed root on fsys. maxUploadMB bounds staged files.
func NewManager(fsys afero.Fs, root string, maxUploadMB int, log *slog.Logger) (*Manager, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root %s: %w", root, err)
	}
	if log == nil {
		log = slog.Default()
	}

	m := &Manager{
		fs:       fsys,
		root:     filepath.Clean(abs),
		maxBytes: int64(maxUploadMB) * 1024 * 1024,
		log:      log,
	}
	for _, dir := range []string{ModelsDir, ThumbnailsDir, trashDir} {
		if err := fsys.MkdirAll(filepath.Join(m.root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("storage: create %s: %w", dir, err)
		}
	}
	return m, nil
}

// Root returns the absolute managed root.
func (m *Manager) Root() string {
	return m.root
}

// ResolveAssetPath returns where the binary for id is staged.
func (m *Manager) ResolveAssetPath(id uint64) string {
	return filepath.Join(m.root, ModelsDir, fmt.Sprintf("model_%d.glb", id))
}

// ResolveThumbnailPath returns where the thumbnail for id is stored.
func (m *Manager) ResolveThumbnailPath(id uint64) string {
	return filepath.Join(m.root, ThumbnailsDir, fmt.Sprintf("thumb_%d.png", id))
}

// ValidateSource checks the extension and size of a file before it is staged.
func (m *Manager) ValidateSource(sourcePath string) (os.FileInfo, error) {
	ext := strings.ToLower(filepath.Ext(sourcePath))
	if !allowedExtensions[ext] {
		return nil, types.Wrapf(types.ErrUnsupportedFile, "%q", ext)
	}

	info, err := m.fs.Stat(sourcePath)
	if err != nil {
		return nil, types.Wrap(types.ErrCopyFailed, err)
	}
	if info.IsDir() {
		return nil, types.Wrapf(types.ErrUnsupportedFile, "%s is a directory", sourcePath)
	}
	if m.maxBytes > 0 && info.Size() > m.maxBytes {
		return nil, types.Wrapf(types.ErrFileTooLarge, "%d bytes", info.Size())
	}
	return info, nil
}

// Stage copies sourcePath to the managed name for id, replacing any earlier copy.
// The copy is written to a temp file and renamed so the target is either the
// complete new file or untouched.
func (m *Manager) Stage(ctx context.Context, sourcePath string, id uint64) (StagedAsset, error) {
	if _, err := m.ValidateSource(sourcePath); err != nil {
		return StagedAsset{}, err
	}
	if err := ctx.Err(); err != nil {
		return StagedAsset{}, types.Wrap(types.ErrCopyFailed, err)
	}

	src, err := m.fs.Open(sourcePath)
	if err != nil {
		return StagedAsset{}, types.Wrap(types.ErrCopyFailed, err)
	}
	defer src.Close()

	dest := m.ResolveAssetPath(id)
	size, err := m.writeAtomic(dest, src)
	if err != nil {
		return StagedAsset{}, types.Wrap(types.ErrCopyFailed, err)
	}

	m.log.Debug("staged model", "id", id, "path", dest, "size", size)
	return StagedAsset{Path: dest, Size: size}, nil
}

// StoreThumbnail writes PNG bytes as the thumbnail for id.
func (m *Manager) StoreThumbnail(id uint64, r io.Reader) (string, error) {
	dest := m.ResolveThumbnailPath(id)
	if _, err := m.writeAtomic(dest, r); err != nil {
		return "", types.Wrap(types.ErrFileIO, err)
	}
	return dest, nil
}

func (m *Manager) writeAtomic(dest string, r io.Reader) (int64, error) {
	dir := filepath.Dir(dest)
	if err := m.fs.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}

	tmp, err := afero.TempFile(m.fs, dir, ".stage-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()

	size, err := io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = m.fs.Rename(tmpName, dest)
	}
	if err != nil {
		_ = m.fs.Remove(tmpName)
		return 0, err
	}
	return size, nil
}

// Contains cleans path and reports whether it names a servable file under the
// managed root. Hidden components, such as the trash directory, are excluded.
func (m *Manager) Contains(path string) (string, bool) {
	if path == "" || strings.ContainsRune(path, 0) {
		return "", false
	}
	clean := filepath.Clean(path)
	if !filepath.IsAbs(clean) {
		return "", false
	}

	rel, err := filepath.Rel(m.root, clean)
	if err != nil {
		return "", false
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(part, ".") {
			return "", false
		}
	}
	return clean, true
}

// Serve returns the bytes of a file under the managed root. Every denial,
// whatever its cause, is reported as ErrAssetNotFound.
func (m *Manager) Serve(requestedPath string) ([]byte, error) {
	clean, ok := m.Contains(requestedPath)
	if !ok {
		m.log.Debug("bridge denied path outside managed root")
		return nil, types.ErrAssetNotFound
	}
	if err := m.checkNoSymlinks(clean); err != nil {
		m.log.Debug("bridge denied path", "error", err)
		return nil, types.ErrAssetNotFound
	}

	data, err := afero.ReadFile(m.fs, clean)
	if err != nil {
		return nil, types.ErrAssetNotFound
	}
	return data, nil
}

// Open opens a file under the managed root for reading.
func (m *Manager) Open(path string) (afero.File, error) {
	clean, ok := m.Contains(path)
	if !ok {
		return nil, types.ErrAssetNotFound
	}
	if err := m.checkNoSymlinks(clean); err != nil {
		return nil, types.ErrAssetNotFound
	}
	f, err := m.fs.Open(clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, types.ErrAssetNotFound
		}
		return nil, types.Wrap(types.ErrFileIO, err)
	}
	return f, nil
}

// checkNoSymlinks walks from the root to clean and rejects symlinks and non regular files.
func (m *Manager) checkNoSymlinks(clean string) error {
	rel, err := filepath.Rel(m.root, clean)
	if err != nil {
		return err
	}

	current := m.root
	parts := strings.Split(rel, string(filepath.Separator))
	for i, part := range parts {
		current = filepath.Join(current, part)
		info, err := m.lstat(current)
		if err != nil {
			return err
		}
		if info.Mode()&os.ModeSymlink != 0 {
			return fmt.Errorf("%s is a symlink", current)
		}
		if i == len(parts)-1 && !info.Mode().IsRegular() {
			return fmt.Errorf("%s is not a regular file", current)
		}
	}
	return nil
}

func (m *Manager) lstat(path string) (os.FileInfo, error) {
	if l, ok := m.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return m.fs.Stat(path)
}

// Remove deletes a file under the managed root. An absent file is not an error
// and paths outside the root are left alone.
func (m *Manager) Remove(path string) error {
	if path == "" {
		return nil
	}
	clean, ok := m.Contains(path)
	if !ok {
		m.log.Warn("refusing to remove file outside managed root", "path", path)
		return nil
	}
	if err := m.fs.Remove(clean); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return types.Wrap(types.ErrFileIO, err)
	}
	return nil
}

// Check verifies that the managed root is still a directory.
func (m *Manager) Check() error {
	info, err := m.fs.Stat(m.root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", m.root)
	}
	return nil
}
