package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

func SetVersion(v string) {
	appVersion = v
}

var rootCmd = &cobra.Command{
	Use:   "toolforge",
	Short: "Compile schema sources into validated MCP tool servers",
	Long:  "toolforge turns an OpenAPI document, a relational database, extracted tool specs, or a live MCP server into a runnable Go MCP server project with built-in argument validation.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.SetVersionTemplate(fmt.Sprintf("toolforge v%s\n", appVersion))
}

func Execute() error {
	rootCmd.Version = appVersion
	return rootCmd.Execute()
}
