package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sealbox/internal/domain"
	"sealbox/internal/identity"
	"sealbox/internal/protocol/sealed"
)

func sealCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "seal <bundle.json> <path>",
		Short: "Encrypt a file to a peer's identity key, no session needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			bundle, err := identity.UnmarshalBundle(raw)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			msg, err := sealed.Seal(bundle.IdentityKey, data)
			if err != nil {
				return err
			}
			enc, err := json.Marshal(msg)
			if err != nil {
				return err
			}
			if out == "" {
				out = args[1] + ".sealed"
			}
			if err := os.WriteFile(out, enc, 0o600); err != nil {
				return err
			}
			fmt.Printf("Sealed to %s for %s.\n", out, bundle.DeviceID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default <path>.sealed)")
	return cmd
}

func openCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "open <path.sealed>",
		Short: "Decrypt a file sealed to this device's identity key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			id, err := appCtx.Identity.Load(passphrase)
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var msg domain.SealedMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				return err
			}
			data, err := sealed.Open(id.IdentityPriv, msg)
			if err != nil {
				return err
			}
			if out == "" {
				out = args[0] + ".out"
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return err
			}
			fmt.Printf("Wrote %s (%d bytes).\n", out, len(data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path")
	return cmd
}
