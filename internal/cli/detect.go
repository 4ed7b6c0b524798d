package cli

import (
	"fmt"
	"os"

	"github.com/karthikpt1/mcpforge/internal/parser"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect [file]",
	Short: "Detect the flavor of an API description",
	Long: `Detect which description flavor a file contains without running
the full pipeline.

Reported flavors: openapi3, swagger2, wsdl11.

Examples:
  mcpforge detect api.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}

		manager := parser.NewManager()
		flavor, err := manager.Detect(content)
		if err != nil {
			return err
		}

		fmt.Println(flavor)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
