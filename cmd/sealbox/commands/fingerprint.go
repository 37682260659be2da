package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"sealbox/internal/identity"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the identity fingerprint for out-of-band comparison",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			id, err := appCtx.Identity.Load(passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Fingerprint: %s\n", identity.Fingerprint(id.IdentityPub))
			return nil
		},
	}
}
