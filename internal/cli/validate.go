package cli

import (
	"fmt"
	"os"

	"github.com/karthikpt1/mcpforge/internal/parser"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate an API description",
	Long: `Parse an API description and check the resulting tool set for
consistency without generating a server.

Checks performed:
  - The description parses in one of the supported flavors
  - Every tool name is a valid identifier
  - Every URL path parameter is covered by an argument
  - Auth metadata is complete

Examples:
  mcpforge validate api.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}

		manager := parser.NewManager()
		res, err := manager.Parse(content, &parser.Options{})
		if err != nil {
			return fmt.Errorf("parse error: %w", err)
		}

		var problems []string
		for i := range res.Tools {
			if err := res.Tools[i].Validate(); err != nil {
				problems = append(problems, err.Error())
			}
		}

		if len(problems) > 0 {
			fmt.Println("Validation errors:")
			for _, p := range problems {
				fmt.Printf("  - %s\n", p)
			}
			return fmt.Errorf("validation failed with %d errors", len(problems))
		}

		fmt.Printf("Valid %s description: %s\n", res.Flavor, res.APIName)
		fmt.Printf("  Tools: %d\n", len(res.Tools))
		fmt.Printf("  Models: %d\n", len(res.Models))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
