package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeisme/ingestvault/pkg/configs"
	"github.com/yeisme/ingestvault/pkg/internal/jobs"
	"github.com/yeisme/ingestvault/pkg/internal/storage/db"
)

const monthLayout = "2006-01"

var (
	partitionMonth string

	partitionCmd = &cobra.Command{
		Use:     "partitions",
		Short:   "Error log partition maintenance (PostgreSQL only)",
		Aliases: []string{"partition", "part"},
	}

	partitionInitCmd = &cobra.Command{
		Use:   "init",
		Short: "create partitions for the current and next month",
		RunE: withPartitions(func(ctx context.Context, p *jobs.PartitionScheduler) bool {
			return p.InitializePartitions(ctx)
		}),
	}

	partitionCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "create the partition for --month (YYYY-MM)",
		RunE: withPartitions(func(ctx context.Context, p *jobs.PartitionScheduler) bool {
			return p.CreatePartition(ctx, mustMonth())
		}),
		PreRunE: validateMonth,
	}

	partitionDropCmd = &cobra.Command{
		Use:   "drop",
		Short: "drop the partition for --month (YYYY-MM)",
		RunE: withPartitions(func(ctx context.Context, p *jobs.PartitionScheduler) bool {
			return p.DropPartition(ctx, mustMonth())
		}),
		PreRunE: validateMonth,
	}

	partitionMaintainCmd = &cobra.Command{
		Use:   "maintain",
		Short: "create next month's partition and drop the expired one",
		RunE: withPartitions(func(ctx context.Context, p *jobs.PartitionScheduler) bool {
			return p.Maintain(ctx)
		}),
	}
)

// withPartitions 打开数据库并构造分区维护器；操作失败时返回非零退出码.
func withPartitions(fn func(ctx context.Context, p *jobs.PartitionScheduler) bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := configs.GetConfig()
		if !cfg.DB.IsPostgres() {
			return fmt.Errorf("partition maintenance requires PostgreSQL, got %s", cfg.DB.Type)
		}

		c, err := db.New(cmd.Context(), &cfg.DB)
		if err != nil {
			return err
		}
		defer c.Close() //nolint:errcheck

		p := jobs.NewPartitionScheduler(db.NewPartitionRepo(c), cfg.Partition, nil)
		if !fn(cmd.Context(), p) {
			return fmt.Errorf("partition operation failed, see logs")
		}

		fmt.Fprintln(cmd.OutOrStdout(), "done")

		return nil
	}
}

func validateMonth(cmd *cobra.Command, args []string) error {
	if _, err := time.Parse(monthLayout, partitionMonth); err != nil {
		return fmt.Errorf("--month must be YYYY-MM: %w", err)
	}

	return nil
}

// mustMonth 只在 validateMonth 通过后调用.
func mustMonth() time.Time {
	t, _ := time.Parse(monthLayout, partitionMonth)
	return t
}

// registerPartitionCommands 注册分区维护命令.
func registerPartitionCommands() {
	for _, c := range []*cobra.Command{partitionCreateCmd, partitionDropCmd} {
		c.Flags().StringVar(&partitionMonth, "month", "", "target month, e.g. 2026-03")
		_ = c.MarkFlagRequired("month")
	}

	partitionCmd.AddCommand(partitionInitCmd, partitionCreateCmd, partitionDropCmd, partitionMaintainCmd)
	rootCmd.AddCommand(partitionCmd)
}
