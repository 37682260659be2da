package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sealbox/internal/app"
)

var (
	home       string
	passphrase string
	appCtx     *app.App
)

func Execute() error {
	root := &cobra.Command{
		Use:   "sealbox",
		Short: "Forward-secure messaging and file encryption core",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".sealbox")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}
			cfg, err := app.LoadConfig(home)
			if err != nil {
				return err
			}
			appCtx = app.New(cfg)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.sealbox)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting local keys")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		bundleCmd(),
		rotateCmd(),
		replenishCmd(),
		sealCmd(),
		openCmd(),
		encryptFileCmd(),
		decryptFileCmd(),
	)
	return root.Execute()
}

func requirePassphrase() error {
	if passphrase == "" {
		return errPassphraseRequired
	}
	return nil
}

var errPassphraseRequired = errString("passphrase required (-p)")

type errString string

func (e errString) Error() string { return string(e) }
