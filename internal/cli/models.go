// models.go
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

package cli

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/localnerve/p3dv-catalog/internal/app"
	"github.com/localnerve/p3dv-catalog/internal/services"
)

var (
	modelName        string
	modelDescription string
	modelCategory    uint64
	modelTags        []uint
	recentLimit      int
	exportFormat     string
)

func newModelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List and import catalogue models",
	}

	add := &cobra.Command{
		Use:   "add FILE",
		Short: "Import a .glb or .gltf file into the catalogue",
		Args:  cobra.ExactArgs(1),
		RunE:  runAddModel,
	}
	add.Flags().StringVarP(&modelName, "name", "n", "", "Model name (default: file name)")
	add.Flags().StringVarP(&modelDescription, "description", "d", "", "Model description")
	add.Flags().Uint64VarP(&modelCategory, "category", "c", 0, "Category id")
	add.Flags().UintSliceVarP(&modelTags, "tag", "t", nil, "Tag id (repeatable)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List models, newest first",
		Args:  cobra.NoArgs,
		RunE:  runListModels,
	}
	list.Flags().IntVarP(&recentLimit, "limit", "l", 0, "Only the most recent n models")

	cmd.AddCommand(add, list)
	return cmd
}

func newExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export ID...",
		Short: "Export models as a collection, archive or metadata bundle",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runExport,
	}
	cmd.Flags().StringVarP(&exportFormat, "format", "f", string(services.ExportCollection), "collection, archive or metadata")
	return cmd
}

func runAddModel(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app.App) error {
		name := modelName
		if name == "" {
			name = baseName(args[0])
		}
		in := services.AddModelInput{
			Name:        name,
			Description: modelDescription,
			SourcePath:  args[0],
		}
		if modelCategory != 0 {
			id := modelCategory
			in.CategoryID = &id
		}
		for _, t := range modelTags {
			in.TagIDs = append(in.TagIDs, uint64(t))
		}

		m, err := a.Library.AddModel(cmd.Context(), in)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), m)
	})
}

func runListModels(cmd *cobra.Command, args []string) error {
	return withApp(cmd.Context(), func(a *app.App) error {
		var (
			list []services.Model
			err  error
		)
		if recentLimit > 0 {
			list, err = a.Library.RecentModels(cmd.Context(), recentLimit)
		} else {
			list, err = a.Library.ListModels(cmd.Context())
		}
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), list)
	})
}

func runExport(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	return withApp(cmd.Context(), func(a *app.App) error {
		result, err := a.Bulk.Export(cmd.Context(), ids, exportFormat)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result)
	})
}

// baseName returns the file name without directory or extension.
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func parseIDs(args []string) ([]uint64, error) {
	ids := make([]uint64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid model id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
