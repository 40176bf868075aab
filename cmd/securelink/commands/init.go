package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"securelink/internal/domain"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <username>",
		Short: "Generate identity keys and store them securely",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if appCtx.Identity.Exists() {
				return fmt.Errorf("identity already exists at %s", appCtx.Identity.Path())
			}
			_, fp, err := appCtx.IDs.GenerateIdentity(passphrase, domain.Username(args[0]))
			if err != nil {
				return err
			}
			fmt.Printf("Identity created.\nFingerprint: %s\n", fp)
			return nil
		},
	}
}
