package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Publish your identity key to the relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			user, err := appCtx.Register(cmd.Context(), passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Registered %s with relay\n", user)
			return nil
		},
	}
}
