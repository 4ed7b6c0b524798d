// Package deploy renders deployment artifacts for a generated server. It
// consumes only the generation boundary data: the server file, the API
// name and the distinct credential variable names.
package deploy

import (
	"encoding/json"
	"fmt"
	"strings"

	yaml "gopkg.in/yaml.v2"

	"github.com/karthikpt1/mcpforge/pkg/tool"
)

// pythonDeps are the runtime dependencies of every generated server.
const pythonDeps = "fastmcp requests pydantic urllib3"

// Input describes one generated server.
type Input struct {
	APIName        string
	ServerFileName string
	ServerSource   string
	EnvVars        []string
}

// Artifact is one named deployment file.
type Artifact struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Kinds of artifacts, usable as stable identifiers in URLs and flags.
const (
	KindServer       = "server"
	KindDockerfile   = "dockerfile"
	KindCompose      = "compose"
	KindClaudeConfig = "claude-config"
	KindEnvTemplate  = "env"
	KindRunScript    = "run-script"
)

// Slug returns the canonical lowercase identifier for an API name.
func Slug(apiName string) string {
	return strings.ToLower(tool.SanitizeName(apiName))
}

// Build renders every artifact for a server, in a fixed order.
func Build(in *Input) ([]Artifact, error) {
	compose, err := DockerCompose(in)
	if err != nil {
		return nil, err
	}
	claude, err := ClaudeDesktopConfig(in)
	if err != nil {
		return nil, err
	}
	return []Artifact{
		{Name: in.ServerFileName, Content: in.ServerSource},
		{Name: "Dockerfile", Content: Dockerfile(in)},
		{Name: "docker-compose.yml", Content: compose},
		{Name: "claude_desktop_config.json", Content: claude},
		{Name: ".env.example", Content: EnvTemplate(in)},
		{Name: "run.sh", Content: RunScript(in)},
	}, nil
}

// ByKind renders a single artifact identified by kind.
func ByKind(in *Input, kind string) (*Artifact, error) {
	switch kind {
	case KindServer:
		return &Artifact{Name: in.ServerFileName, Content: in.ServerSource}, nil
	case KindDockerfile:
		return &Artifact{Name: "Dockerfile", Content: Dockerfile(in)}, nil
	case KindCompose:
		content, err := DockerCompose(in)
		if err != nil {
			return nil, err
		}
		return &Artifact{Name: "docker-compose.yml", Content: content}, nil
	case KindClaudeConfig:
		content, err := ClaudeDesktopConfig(in)
		if err != nil {
			return nil, err
		}
		return &Artifact{Name: "claude_desktop_config.json", Content: content}, nil
	case KindEnvTemplate:
		return &Artifact{Name: ".env.example", Content: EnvTemplate(in)}, nil
	case KindRunScript:
		return &Artifact{Name: "run.sh", Content: RunScript(in)}, nil
	}
	return nil, fmt.Errorf("unknown artifact kind %q", kind)
}

// Dockerfile renders the container build file for a generated server.
func Dockerfile(in *Input) string {
	var b strings.Builder
	b.WriteString("FROM python:3.11-slim\n\n")
	b.WriteString("WORKDIR /app\n\n")
	b.WriteString(fmt.Sprintf("RUN pip install --no-cache-dir %s\n\n", pythonDeps))
	b.WriteString(fmt.Sprintf("COPY %s .\n\n", in.ServerFileName))
	b.WriteString(fmt.Sprintf("CMD [\"python\", \"%s\"]\n", in.ServerFileName))
	return b.String()
}

// DockerCompose renders a compose file that passes every credential
// variable through from the host environment.
func DockerCompose(in *Input) (string, error) {
	environment := make([]string, 0, len(in.EnvVars))
	for _, v := range in.EnvVars {
		environment = append(environment, fmt.Sprintf("%s=${%s}", v, v))
	}

	service := yaml.MapSlice{
		{Key: "build", Value: "."},
		{Key: "restart", Value: "unless-stopped"},
	}
	if len(environment) > 0 {
		service = append(service, yaml.MapItem{Key: "environment", Value: environment})
	}

	doc := yaml.MapSlice{
		{Key: "services", Value: yaml.MapSlice{
			{Key: Slug(in.APIName), Value: service},
		}},
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("render docker-compose: %w", err)
	}
	return string(out), nil
}

type desktopServer struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env,omitempty"`
}

type desktopConfig struct {
	MCPServers map[string]desktopServer `json:"mcpServers"`
}

// ClaudeDesktopConfig renders the client configuration snippet that
// registers the generated server. Credential values are placeholders.
func ClaudeDesktopConfig(in *Input) (string, error) {
	var env map[string]string
	if len(in.EnvVars) > 0 {
		env = make(map[string]string, len(in.EnvVars))
		for _, v := range in.EnvVars {
			env[v] = "YOUR_" + v
		}
	}

	cfg := desktopConfig{
		MCPServers: map[string]desktopServer{
			Slug(in.APIName): {
				Command: "python",
				Args:    []string{in.ServerFileName},
				Env:     env,
			},
		},
	}

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("render desktop config: %w", err)
	}
	return string(out) + "\n", nil
}

// EnvTemplate renders the .env template listing every credential the
// server reads.
func EnvTemplate(in *Input) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("# Credentials for the %s MCP server\n", in.APIName))
	if len(in.EnvVars) == 0 {
		b.WriteString("# This server needs no credentials.\n")
		return b.String()
	}
	for _, v := range in.EnvVars {
		b.WriteString(v)
		b.WriteString("=\n")
	}
	return b.String()
}

// RunScript renders a local launcher.
func RunScript(in *Input) string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\nset -e\n\n")
	b.WriteString(fmt.Sprintf("pip install --quiet %s\n", pythonDeps))
	if len(in.EnvVars) > 0 {
		b.WriteString("\n# Required environment variables:\n")
		for _, v := range in.EnvVars {
			b.WriteString(fmt.Sprintf("# export %s=...\n", v))
		}
	}
	b.WriteString(fmt.Sprintf("\nexec python %s\n", in.ServerFileName))
	return b.String()
}
