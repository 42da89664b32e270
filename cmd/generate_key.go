package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/todoist-daily/internal/server"
)

func newGenerateKeyCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-key",
		Short: "Generate a cookie encryption key",
		Long: `Generate a random 32-byte key, base64 encoded, for COOKIE_ENCRYPTION_KEY.
With the key set, the Todoist token cookie is encrypted with AES-256-GCM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := server.GenerateKey()
			if err != nil {
				return err
			}

			if outputFile == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
				return err
			}

			if err := os.WriteFile(outputFile, []byte(key+"\n"), 0o600); err != nil {
				return fmt.Errorf("failed to write key file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Key written to %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}
