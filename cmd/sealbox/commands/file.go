package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sealbox/internal/domain"
	"sealbox/internal/session"
)

// fileEnvelope is the local container the file commands exchange: the
// offer plus every encrypted chunk.
type fileEnvelope struct {
	Offer  domain.FileOffer        `json:"offer"`
	Chunks []domain.EncryptedChunk `json:"chunks"`
}

func encryptFileCmd() *cobra.Command {
	var out string
	var compress bool

	cmd := &cobra.Command{
		Use:   "encrypt-file <path>",
		Short: "Encrypt a file into keyed chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			s := session.New("local")
			offer, chunks, err := s.EncryptFile(args[0], data, compress || appCtx.Config.CompressFiles)
			if err != nil {
				return err
			}

			raw, err := json.Marshal(fileEnvelope{Offer: offer, Chunks: chunks})
			if err != nil {
				return err
			}
			if out == "" {
				out = args[0] + ".sealed"
			}
			if err := os.WriteFile(out, raw, 0o600); err != nil {
				return err
			}
			fmt.Printf("Wrote %s (%d chunks).\n", out, len(chunks))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default <path>.sealed)")
	cmd.Flags().BoolVar(&compress, "compress", false, "LZ4-compress before encryption")
	return cmd
}

func decryptFileCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "decrypt-file <path.sealed>",
		Short: "Decrypt and reassemble an encrypted file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var env fileEnvelope
			if err := json.Unmarshal(raw, &env); err != nil {
				return err
			}

			s := session.New("local")
			data, err := s.DecryptFile(env.Offer, env.Chunks)
			if err != nil {
				return err
			}
			if out == "" {
				out = env.Offer.FileID + ".out"
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
