package cmd

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/ingestvault/pkg/app"
	"github.com/yeisme/ingestvault/pkg/configs"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
)

var (
	batchCmd = &cobra.Command{
		Use:     "batches",
		Short:   "Batch maintenance commands",
		Aliases: []string{"batch"},
	}

	batchExpireCmd = &cobra.Command{
		Use:   "expire",
		Short: "run one timeout sweep and mark stale batches NOT_COMPLETED",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), configs.GetConfig(), nil)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			res := a.Jobs.Timeout.Sweep(cmd.Context())
			if err := printJSON(cmd, res); err != nil {
				return err
			}

			return res.Err
		},
	}

	batchListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list batches of a site, newest first",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID, _ := cmd.Flags().GetString("site")
			limit, _ := cmd.Flags().GetInt("limit")

			c, err := db.New(cmd.Context(), &configs.GetConfig().DB)
			if err != nil {
				return err
			}
			defer c.Close() //nolint:errcheck

			batches, err := db.NewBatchRepo(c).ListBySite(cmd.Context(), siteID, limit)
			if err != nil {
				return err
			}

			return printJSON(cmd, batches)
		},
	}
)

func printJSON(cmd *cobra.Command, v any) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(b))

	return nil
}

// registerBatchCommands 注册批次维护命令.
func registerBatchCommands() {
	batchListCmd.Flags().String("site", "", "site id")
	batchListCmd.Flags().Int("limit", 20, "max batches to print, 0 for all")
	_ = batchListCmd.MarkFlagRequired("site")

	batchCmd.AddCommand(batchExpireCmd)
	batchCmd.AddCommand(batchListCmd)
	rootCmd.AddCommand(batchCmd)
}
