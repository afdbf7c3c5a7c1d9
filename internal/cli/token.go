package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"aaronromeo.com/triager/internal/config"
	"aaronromeo.com/triager/internal/credential"
)

var tokenCmd = &cobra.Command{
	Use:   "store-token",
	Short: "Save a Google token.json in the OS keyring",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := cmd.Flags().GetString("file")
		if err != nil {
			return err
		}
		service, err := cmd.Flags().GetString("service")
		if err != nil {
			return err
		}
		item, err := cmd.Flags().GetString("item")
		if err != nil {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		loader := credential.NewLoader(config.Config{}, credential.WithKeyring(service, item))
		if err := loader.Store(data); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "token stored in keyring service %q item %q\n", service, item)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("file", "token.json", "Path to the authorized-user token file")
	tokenCmd.Flags().String("service", credential.DefaultKeyringService, "Keyring service name")
	tokenCmd.Flags().String("item", credential.DefaultKeyringItem, "Keyring item name")
}
