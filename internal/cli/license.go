// license.go
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

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/localnerve/p3dv-catalog/internal/license"
	"github.com/localnerve/p3dv-catalog/internal/logger"
)

func newLicenseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "license",
		Short: "Offline license activation",
		Long:  `Inspect the machine fingerprint and run the offline activation handshake without starting the host channel.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "fingerprint",
			Short: "Print the hardware fingerprint of this machine",
			Args:  cobra.NoArgs,
			RunE:  runFingerprint,
		},
		&cobra.Command{
			Use:   "sample-key",
			Short: "Print a well formed demo license key",
			Args:  cobra.NoArgs,
			RunE:  runSampleKey,
		},
		&cobra.Command{
			Use:   "request LICENSE_KEY",
			Short: "Generate an activation code for a license key",
			Args:  cobra.ExactArgs(1),
			RunE:  runRequest,
		},
		&cobra.Command{
			Use:   "activate LICENSE_KEY ACTIVATION_CODE",
			Short: "Redeem an activation code on this machine",
			Args:  cobra.ExactArgs(2),
			RunE:  runActivate,
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the persisted activation",
			Args:  cobra.NoArgs,
			RunE:  runStatus,
		},
		&cobra.Command{
			Use:   "deactivate",
			Short: "Remove the activation from this machine",
			Args:  cobra.NoArgs,
			RunE:  runDeactivate,
		},
	)
	return cmd
}

// licenseManager builds a manager over the real host and license file,
// restoring any persisted activation.
func licenseManager(cmd *cobra.Command) (*license.Manager, error) {
	cfg, err := initEnv()
	if err != nil {
		return nil, err
	}
	signer, err := license.NewSigner(cfg.LicenseSecret, cfg.ProductCode)
	if err != nil {
		return nil, err
	}
	m := license.NewManager(license.Options{
		Product:      cfg.ProductCode,
		Version:      cfg.AppVersion,
		Fingerprints: license.NewFingerprinter(license.SystemHost{}),
		Signer:       signer,
		Store:        license.NewFileStore(afero.NewOsFs(), cfg.LicenseFile),
		Logger:       logger.WithComponent("license"),
	})
	m.LoadPersisted(cmd.Context())
	return m, nil
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	fp, err := license.NewFingerprinter(license.SystemHost{}).Compute(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), fp)
	return nil
}

func runSampleKey(cmd *cobra.Command, args []string) error {
	cfg, err := initEnv()
	if err != nil {
		return err
	}
	key, err := license.GenerateSampleKey(cfg.ProductCode)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), key)
	return nil
}

func runRequest(cmd *cobra.Command, args []string) error {
	m, err := licenseManager(cmd)
	if err != nil {
		return err
	}
	code, err := m.GenerateActivationRequest(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), code)
	return nil
}

func runActivate(cmd *cobra.Command, args []string) error {
	m, err := licenseManager(cmd)
	if err != nil {
		return err
	}
	if _, err := m.Activate(cmd.Context(), args[0], args[1]); err != nil {
		if reason, ok := license.ReasonOf(err); ok {
			return fmt.Errorf("activation rejected (%s): %w", reason, err)
		}
		return err
	}
	return printJSON(cmd.OutOrStdout(), m.Status())
}

func runStatus(cmd *cobra.Command, args []string) error {
	m, err := licenseManager(cmd)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), m.Status())
}

func runDeactivate(cmd *cobra.Command, args []string) error {
	m, err := licenseManager(cmd)
	if err != nil {
		return err
	}
	if err := m.Deactivate(cmd.Context()); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), m.Status())
}
