package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"sealbox/internal/identity"
)

func rotateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate",
		Short: "Rotate the signed prekey",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			id, err := appCtx.Identity.Load(passphrase)
			if err != nil {
				return err
			}
			if err := identity.RotateSignedPreKey(&id); err != nil {
				return err
			}
			if err := appCtx.Identity.Save(passphrase, id); err != nil {
				return err
			}
			fmt.Println("Signed prekey rotated.")
			return nil
		},
	}
}

func replenishCmd() *cobra.Command {
	var target int

	cmd := &cobra.Command{
		Use:   "replenish",
		Short: "Top up the one-time prekey pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if target <= 0 {
				target = appCtx.Config.OneTimePreKeys
			}
			id, err := appCtx.Identity.Load(passphrase)
			if err != nil {
				return err
			}
			added, err := identity.Replenish(&id, target)
			if err != nil {
				return err
			}
			if err := appCtx.Identity.Save(passphrase, id); err != nil {
				return err
			}
			fmt.Printf("Added %d one-time prekeys (pool now %d).\n", added, len(id.OneTimePreKeys))
			return nil
		},
	}
	cmd.Flags().IntVar(&target, "target", 0, "pool size to reach (default from config)")
	return cmd
}
