package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/vidvault/pkg/internal/storage/kv"
)

var (
	kvCmd = &cobra.Command{
		Use:   "kv",
		Short: "Key-value store related commands",
	}

	kvListCmd = &cobra.Command{
		Use:   "ls",
		Short: "list all registered kv store types",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered kv types:")
			for _, kvType := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), " - "+string(kvType))
			}
		},
	}
)

// registerKVCommands 注册 KV 相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)

	kvCmd.AddCommand(kvListCmd)
}
