package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"sealbox/internal/identity"
)

func initCmd() *cobra.Command {
	var deviceID string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a device identity and store it encrypted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if deviceID == "" {
				deviceID = appCtx.Config.DeviceID
			}
			if deviceID == "" {
				return fmt.Errorf("device id required (--device or config)")
			}

			id, err := identity.Generate(deviceID, appCtx.Config.OneTimePreKeys)
			if err != nil {
				return err
			}
			if err := appCtx.Identity.Save(passphrase, id); err != nil {
				return err
			}
			fmt.Printf("Identity created for %s.\nFingerprint: %s\n", deviceID, identity.Fingerprint(id.IdentityPub))
			return nil
		},
	}
	cmd.Flags().StringVar(&deviceID, "device", "", "device identifier")
	return cmd
}
