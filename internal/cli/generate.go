package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/karthikpt1/mcpforge/internal/deploy"
	"github.com/karthikpt1/mcpforge/internal/generator"
	"github.com/karthikpt1/mcpforge/internal/parser"
	"github.com/karthikpt1/mcpforge/internal/prompt"
	"github.com/karthikpt1/mcpforge/pkg/tool"
	"github.com/spf13/cobra"
)

var (
	generateName          string
	generateOut           string
	generatePrompts       string
	generatePromptRequest bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [file]",
	Short: "Generate an MCP server from an API description",
	Long: `Generate a runnable MCP server from an API description file.

Supported description formats:
  - OpenAPI 3.x (YAML/JSON)
  - Swagger 2.0 (YAML/JSON)
  - WSDL 1.1

Without --out the server source is printed to stdout. With --out DIR the
full artifact set is written: the server file, Dockerfile,
docker-compose.yml, claude_desktop_config.json, .env.example and run.sh.

Prompt templates are optional. Run with --prompt-request to print the
instruction text for an LLM, save its reply to a file, and pass that file
back with --prompts to embed the templates in the generated server.

Examples:
  mcpforge generate api.yaml
  mcpforge generate api.yaml -o ./out -n "My API"
  mcpforge generate service.wsdl -o ./out
  mcpforge generate api.yaml --prompt-request > request.txt
  mcpforge generate api.yaml --prompts reply.txt -o ./out`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read input file: %w", err)
		}

		manager := parser.NewManager()
		res, err := manager.Parse(content, &parser.Options{APIName: generateName})
		if err != nil {
			return err
		}
		logger.Info("parsed description", "api", res.APIName, "flavor", res.Flavor, "tools", len(res.Tools))

		if generatePromptRequest {
			fmt.Print(prompt.RequestText(res.Tools))
			return nil
		}

		var prompts []tool.Prompt
		if generatePrompts != "" {
			reply, err := os.ReadFile(generatePrompts)
			if err != nil {
				return fmt.Errorf("failed to read prompts file: %w", err)
			}
			prompts, err = prompt.Link(prompt.ParseResponse(string(reply)), res.Tools)
			if err != nil {
				return err
			}
			logger.Info("linked prompt templates", "count", len(prompts))
		}

		code, err := generator.Generate(&generator.Request{
			APIName: res.APIName,
			Tools:   res.Tools,
			Models:  res.Models,
			Prompts: prompts,
		})
		if err != nil {
			return err
		}

		if generateOut == "" {
			fmt.Print(code)
			return nil
		}

		artifacts, err := deploy.Build(&deploy.Input{
			APIName:        res.APIName,
			ServerFileName: generator.ServerFileName(res.APIName),
			ServerSource:   code,
			EnvVars:        tool.EnvVars(res.Tools),
		})
		if err != nil {
			return err
		}

		if err := os.MkdirAll(generateOut, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		for _, a := range artifacts {
			mode := os.FileMode(0644)
			if a.Name == "run.sh" {
				mode = 0755
			}
			path := filepath.Join(generateOut, a.Name)
			if err := os.WriteFile(path, []byte(a.Content), mode); err != nil {
				return fmt.Errorf("failed to write %s: %w", a.Name, err)
			}
		}
		logger.Info("wrote artifacts", "dir", generateOut, "count", len(artifacts))

		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&generateName, "name", "n", "", "Override the API name from the description")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "Output directory for the full artifact set")
	generateCmd.Flags().StringVar(&generatePrompts, "prompts", "", "File with an LLM reply to embed as prompt templates")
	generateCmd.Flags().BoolVar(&generatePromptRequest, "prompt-request", false, "Print the prompt-template request text and exit")

	rootCmd.AddCommand(generateCmd)
}
