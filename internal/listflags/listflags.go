// Package listflags holds flags shared by the listing commands.
package listflags

import "github.com/spf13/cobra"

// AddJSONFlag adds a shared --json flag to list commands.
func AddJSONFlag(cmd *cobra.Command, target *bool) {
	cmd.Flags().BoolVar(target, "json", false, "Output as JSON")
}

// AddAllFlag adds a shared --all flag to list commands.
func AddAllFlag(cmd *cobra.Command, target *bool, usage string) {
	if usage == "" {
		usage = "Include everything"
	}
	cmd.Flags().BoolVar(target, "all", false, usage)
}
