// Package cli provides the command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "dev"
	// Commit is set at build time.
	Commit = "none"
)

// logger is the CLI-side logger; status goes to stderr so command output
// stays pipeable.
var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: false,
})

var rootCmd = &cobra.Command{
	Use:   "mcpforge",
	Short: "Generate MCP servers from API descriptions",
	Long: `mcpforge turns API descriptions (OpenAPI 3.x, Swagger 2.0, WSDL 1.1)
into ready-to-run MCP servers in Python, plus the deployment files
to containerize them and register them with an MCP client.

Features:
  - Generate a FastMCP server from an OpenAPI, Swagger or WSDL description
  - REST and SOAP backends from the same normalized tool set
  - Dockerfile, docker-compose, client config and env template artifacts
  - Generation history registry with web API`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mcpforge version %s (commit: %s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}
