package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"sealbox/internal/domain"
	"sealbox/internal/identity"
)

func bundleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bundle",
		Short: "Export a prekey bundle, consuming one one-time prekey",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			id, err := appCtx.Identity.Load(passphrase)
			if err != nil {
				return err
			}

			b, err := identity.CreateBundle(&id)
			if err == domain.ErrNoOneTimeKeys {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: one-time prekey pool exhausted; run replenish")
			} else if err != nil {
				return err
			}

			// The bundle consumed a prekey; persist the mutated pool.
			if err := appCtx.Identity.Save(passphrase, id); err != nil {
				return err
			}

			raw, err := identity.MarshalBundle(b)
			if err != nil {
				return err
			}
			fmt.Println(string(raw))
			return nil
		},
	}
}
