package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/ingestvault/pkg/configs"
	kv "github.com/yeisme/ingestvault/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "Key-Value store (site cache) related commands",
		Aliases: []string{"keyvalue"},
	}

	kvListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list all registered kv types, * marks the configured one",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			current := configs.GetConfig().KV.Type

			fmt.Fprintln(cmd.OutOrStdout(), "Registered kv types:")

			for _, t := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), marker(string(t) == current)+string(t))
			}
		},
	}
)

// marker 列表前缀，当前配置项标记为 *.
func marker(active bool) string {
	if active {
		return " * "
	}

	return "   "
}

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(kvListCmd)
}
