// bulk_export.go
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

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/localnerve/p3dv-catalog/internal/types"
	"github.com/spf13/afero"
)

// ExportFormat names an export bundle shape.
type ExportFormat string

const (
	// ExportCollection is a directory with collection.json and the binaries under models/.
	ExportCollection ExportFormat = "collection"
	// ExportArchive is a zip of the binaries only.
	ExportArchive ExportFormat = "archive"
	// ExportMetadata is a single JSON manifest without binaries.
	ExportMetadata ExportFormat = "metadata"
)

const manifestName = "collection.json"

// ParseExportFormat validates a format name.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case ExportCollection, ExportArchive, ExportMetadata:
		return f, nil
	default:
		return "", types.Wrapf(types.ErrUnsupportedExportFormat, "%q", s)
	}
}

// ExportResult reports where a bundle was written.
type ExportResult struct {
	ExportPath string       `json:"exportPath"`
	Format     ExportFormat `json:"format"`
	ExportID   string       `json:"exportId"`
	Attempted  int          `json:"attempted"`
	Exported   int          `json:"exported"`
}

// ExportManifest is the JSON document written for collection and metadata exports.
type ExportManifest struct {
	Format     ExportFormat  `json:"format"`
	Version    string        `json:"version"`
	ExportID   string        `json:"exportId"`
	ExportedAt time.Time     `json:"exportedAt"`
	Models     []ExportEntry `json:"models"`
}

// ExportEntry is one model in a manifest. File is relative to the bundle and
// empty when no binary was copied.
type ExportEntry struct {
	ID          uint64            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category,omitempty"`
	Tags        []string          `json:"tags"`
	Metadata    map[string]string `json:"metadata"`
	File        string            `json:"file,omitempty"`
	FileSize    int64             `json:"fileSize"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

func exportEntry(m Model) ExportEntry {
	e := ExportEntry{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Tags:        make([]string, 0, len(m.Tags)),
		Metadata:    m.Metadata,
		FileSize:    m.FileSize,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	if m.Category != nil {
		e.Category = m.Category.Name
	}
	for _, t := range m.Tags {
		e.Tags = append(e.Tags, t.Name)
	}
	return e
}

func bundleFileName(id uint64) string {
	return fmt.Sprintf("model_%d.glb", id)
}

// Export writes the selected models into a new timestamped bundle under the
// export directory. A record whose binary cannot be read is left out and the
// batch continues; failing to write the bundle itself aborts the export and
// removes what was written.
func (b *BulkExecutor) Export(ctx context.Context, ids []uint64, format string) (result ExportResult, err error) {
	defer func() { recordOutcome("export", err) }()

	sel, err := selection(ids)
	if err != nil {
		return result, err
	}
	f, err := ParseExportFormat(format)
	if err != nil {
		return result, err
	}

	found := make([]Model, 0, len(sel))
	skipped := 0
	for _, id := range sel {
		m, err := b.store.GetModel(ctx, id)
		if err != nil {
			if !errors.Is(err, types.ErrNotFound) {
				b.log.Warn("export lookup failed", "id", id, "error", err)
			}
			skipped++
			continue
		}
		found = append(found, m)
	}

	now := b.now().UTC()
	exportID := uuid.NewString()
	manifest := ExportManifest{
		Format:     f,
		Version:    b.version,
		ExportID:   exportID,
		ExportedAt: now,
		Models:     make([]ExportEntry, 0, len(found)),
	}
	base := fmt.Sprintf("p3dv-%s-%s-%s", f, now.Format("20060102-150405"), exportID[:8])

	if err := b.exportFS.MkdirAll(b.exportDir, 0o755); err != nil {
		return result, types.Wrap(types.ErrExportFailed, err)
	}

	result = ExportResult{Format: f, ExportID: exportID, Attempted: len(sel)}
	switch f {
	case ExportCollection:
		result.ExportPath = filepath.Join(b.exportDir, base)
		result.Exported, err = b.exportCollection(result.ExportPath, found, &manifest)
	case ExportArchive:
		result.ExportPath = filepath.Join(b.exportDir, base+".zip")
		result.Exported, err = b.exportArchive(result.ExportPath, found)
	case ExportMetadata:
		result.ExportPath = filepath.Join(b.exportDir, base+".json")
		for _, m := range found {
			manifest.Models = append(manifest.Models, exportEntry(m))
		}
		result.Exported = len(found)
		err = b.writeFileAtomic(result.ExportPath, func(w io.Writer) error {
			return encodeManifest(w, &manifest)
		})
	}
	if err != nil {
		return ExportResult{}, types.Wrap(types.ErrExportFailed, err)
	}

	recordItems("export", result.Exported, len(found)-result.Exported, skipped)
	b.log.Info("export finished", "format", f, "path", result.ExportPath, "attempted", result.Attempted, "exported", result.Exported)
	return result, nil
}

func encodeManifest(w io.Writer, m *ExportManifest) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

func (b *BulkExecutor) exportCollection(dir string, found []Model, manifest *ExportManifest) (exported int, err error) {
	if err := b.exportFS.MkdirAll(filepath.Join(dir, "models"), 0o755); err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rmErr := b.exportFS.RemoveAll(dir); rmErr != nil {
				b.log.Error("failed to remove partial export", "path", dir, "error", rmErr)
			}
		}
	}()

	for _, m := range found {
		entry := exportEntry(m)
		rel := filepath.ToSlash(filepath.Join("models", bundleFileName(m.ID)))
		if err := b.copyBinary(m, filepath.Join(dir, rel)); err != nil {
			b.log.Warn("export copy failed", "id", m.ID, "error", err)
		} else {
			entry.File = rel
			exported++
		}
		manifest.Models = append(manifest.Models, entry)
	}

	err = b.writeFileAtomic(filepath.Join(dir, manifestName), func(w io.Writer) error {
		return encodeManifest(w, manifest)
	})
	return exported, err
}

func (b *BulkExecutor) copyBinary(m Model, dest string) error {
	if m.FilePath == "" {
		return types.Wrapf(types.ErrAssetNotFound, "model %d has no staged file", m.ID)
	}
	src, err := b.files.Open(m.FilePath)
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := b.exportFS.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		_ = b.exportFS.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		_ = b.exportFS.Remove(dest)
		return err
	}
	return nil
}

func (b *BulkExecutor) exportArchive(path string, found []Model) (exported int, err error) {
	err = b.writeFileAtomic(path, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, m := range found {
			if m.FilePath == "" {
				continue
			}
			src, err := b.files.Open(m.FilePath)
			if err != nil {
				b.log.Warn("export copy failed", "id", m.ID, "error", err)
				continue
			}
			entry, err := zw.CreateHeader(&zip.FileHeader{
				Name:     "models/" + bundleFileName(m.ID),
				Method:   zip.Deflate,
				Modified: m.UpdatedAt,
			})
			if err == nil {
				_, err = io.Copy(entry, src)
			}
			src.Close()
			if err != nil {
				return err
			}
			exported++
		}
		return zw.Close()
	})
	if err != nil {
		return 0, err
	}
	return exported, nil
}

// writeFileAtomic writes through a temp file next to path and renames it into place.
func (b *BulkExecutor) writeFileAtomic(path string, write func(io.Writer) error) error {
	tmp, err := afero.TempFile(b.exportFS, filepath.Dir(path), ".export-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	err = write(tmp)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = b.exportFS.Rename(tmpName, path)
	}
	if err != nil {
		_ = b.exportFS.Remove(tmpName)
	}
	return err
}
