package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/ingestvault/pkg/configs"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
)

var (
	siteCmd = &cobra.Command{
		Use:     "sites",
		Short:   "Site directory commands",
		Aliases: []string{"site"},
	}

	siteListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all sites in the directory",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := db.New(cmd.Context(), &configs.GetConfig().DB)
			if err != nil {
				return err
			}
			defer c.Close() //nolint:errcheck

			sites, err := db.NewSiteRepo(c).List(cmd.Context())
			if err != nil {
				return err
			}

			return printJSON(cmd, sites)
		},
	}
)

// registerSiteCommands 注册站点目录命令.
func registerSiteCommands() {
	siteCmd.AddCommand(siteListCmd)
	rootCmd.AddCommand(siteCmd)
}
