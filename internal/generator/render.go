package generator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/karthikpt1/mcpforge/pkg/tool"
)

const requestTimeout = 30

// renderHeader writes the module docstring, imports and the shared retrying
// session every generated server starts with.
func renderHeader(b *strings.Builder, apiName string) {
	b.WriteString(fmt.Sprintf("\"\"\"%s MCP server.\n\nGenerated by mcpforge. Do not edit by hand.\n\"\"\"\n\n", docstringSafe(apiName)))
	b.WriteString("import os\n")
	b.WriteString("from typing import Optional\n\n")
	b.WriteString("import requests\n")
	b.WriteString("from fastmcp import FastMCP\n")
	b.WriteString("from pydantic import BaseModel\n")
	b.WriteString("from requests.adapters import HTTPAdapter\n")
	b.WriteString("from urllib3.util.retry import Retry\n\n")
	b.WriteString(fmt.Sprintf("mcp = FastMCP(%q)\n\n", apiName))
	b.WriteString("session = requests.Session()\n")
	b.WriteString("retries = Retry(\n")
	b.WriteString("    total=3,\n")
	b.WriteString("    backoff_factor=0.5,\n")
	b.WriteString("    status_forcelist=[429, 500, 502, 503, 504],\n")
	b.WriteString("    allowed_methods=[\"GET\", \"POST\", \"PUT\", \"DELETE\", \"PATCH\"],\n")
	b.WriteString(")\n")
	b.WriteString("session.mount(\"https://\", HTTPAdapter(max_retries=retries))\n")
	b.WriteString("session.mount(\"http://\", HTTPAdapter(max_retries=retries))\n\n\n")
}

// renderFooter writes the server entry point.
func renderFooter(b *strings.Builder) {
	b.WriteString("if __name__ == \"__main__\":\n")
	b.WriteString("    mcp.run()\n")
}

// modelOrder returns model names in definition order: referenced models
// before their referents, alphabetical within each rank so output is
// deterministic. Cyclic leftovers append in alphabetical order.
func modelOrder(models tool.Models) []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)

	deps := make(map[string][]string, len(names))
	for _, name := range names {
		var refs []string
		for pair := models[name].Oldest(); pair != nil; pair = pair.Next() {
			inner := tool.Unwrap(pair.Value)
			if inner == name {
				continue
			}
			if _, ok := models[inner]; ok {
				refs = append(refs, inner)
			}
		}
		deps[name] = refs
	}

	order := make([]string, 0, len(names))
	emitted := make(map[string]bool, len(names))
	for len(order) < len(names) {
		progressed := false
		for _, name := range names {
			if emitted[name] {
				continue
			}
			ready := true
			for _, dep := range deps[name] {
				if !emitted[dep] {
					ready = false
					break
				}
			}
			if ready {
				order = append(order, name)
				emitted[name] = true
				progressed = true
			}
		}
		if !progressed {
			for _, name := range names {
				if !emitted[name] {
					order = append(order, name)
					emitted[name] = true
				}
			}
		}
	}
	return order
}

// renderModels writes one pydantic model class per entry, in dependency
// order. Optional fields default to None.
func renderModels(b *strings.Builder, models tool.Models) {
	for _, name := range modelOrder(models) {
		fields := models[name]
		b.WriteString(fmt.Sprintf("class %s(BaseModel):\n", name))
		if fields.Len() == 0 {
			b.WriteString("    pass\n\n\n")
			continue
		}
		for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
			if isOptionalType(pair.Value) {
				b.WriteString(fmt.Sprintf("    %s: %s = None\n", pair.Key, pair.Value))
			} else {
				b.WriteString(fmt.Sprintf("    %s: %s\n", pair.Key, pair.Value))
			}
		}
		b.WriteString("\n\n")
	}
}

// renderAliases writes per-tool aliases for models shared across tools, so
// callers can refer to a stable name per operation.
func renderAliases(b *strings.Builder, tools []tool.Tool, models tool.Models) {
	usage := make(map[string]int)
	for i := range tools {
		if tools[i].BodyModel != "" {
			usage[tools[i].BodyModel]++
		}
		if tools[i].ResponseModel != "" {
			usage[tools[i].ResponseModel]++
		}
	}

	var lines []string
	seen := make(map[string]bool)
	for i := range tools {
		for _, ref := range []struct {
			model  string
			suffix string
		}{
			{tools[i].BodyModel, "Request"},
			{tools[i].ResponseModel, "Response"},
		} {
			if ref.model == "" || usage[ref.model] < 2 {
				continue
			}
			alias := camelCase(tools[i].Name) + ref.suffix
			if alias == ref.model || seen[alias] {
				continue
			}
			if _, clash := models[alias]; clash {
				continue
			}
			seen[alias] = true
			lines = append(lines, fmt.Sprintf("%s = %s", alias, ref.model))
		}
	}

	if len(lines) == 0 {
		return
	}
	b.WriteString("# Per-operation aliases for shared models\n")
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n\n")
}

// renderPrompts writes one prompt function per template. Prompt names were
// deduplicated upstream; the _prompt suffix keeps them from shadowing tool
// functions.
func renderPrompts(b *strings.Builder, prompts []tool.Prompt) {
	for _, p := range prompts {
		args := p.ArgNames()
		params := make([]string, len(args))
		for i, a := range args {
			params[i] = tool.SanitizeName(a) + ": str"
		}

		b.WriteString("@mcp.prompt()\n")
		b.WriteString(fmt.Sprintf("def %s_prompt(%s) -> str:\n", tool.SanitizeName(p.Name), strings.Join(params, ", ")))
		if p.Description != "" {
			b.WriteString(fmt.Sprintf("    \"\"\"%s\"\"\"\n", docstringSafe(p.Description)))
		}
		if len(args) > 0 {
			b.WriteString(fmt.Sprintf("    return f\"\"\"%s\"\"\"\n", docstringSafe(p.Text)))
		} else {
			b.WriteString(fmt.Sprintf("    return \"\"\"%s\"\"\"\n", docstringSafe(p.Text)))
		}
		b.WriteString("\n\n")
	}
}

// argOrder splits a tool's arguments into required and optional groups,
// preserving declaration order within each. Python demands defaulted
// parameters after positional ones.
func argOrder(t *tool.Tool) (required, optional [][2]string) {
	for pair := t.Args.Oldest(); pair != nil; pair = pair.Next() {
		entry := [2]string{pair.Key, pair.Value}
		if isOptionalType(pair.Value) {
			optional = append(optional, entry)
		} else {
			required = append(required, entry)
		}
	}
	return required, optional
}

// signature renders the Python parameter list for a tool.
func signature(t *tool.Tool) string {
	required, optional := argOrder(t)
	params := make([]string, 0, len(required)+len(optional))
	for _, arg := range required {
		params = append(params, fmt.Sprintf("%s: %s", arg[0], arg[1]))
	}
	for _, arg := range optional {
		params = append(params, fmt.Sprintf("%s: %s = None", arg[0], arg[1]))
	}
	return strings.Join(params, ", ")
}

// renderAuthHeaders writes the header construction for a tool's auth
// mechanism, reading the credential from the environment at call time.
func renderAuthHeaders(b *strings.Builder, t *tool.Tool) {
	b.WriteString("    headers = {}\n")
	switch t.Auth {
	case tool.AuthBearer:
		b.WriteString(fmt.Sprintf("    token = os.environ.get(%q, \"\")\n", t.AuthEnvVar))
		b.WriteString("    if token:\n")
		b.WriteString("        headers[\"Authorization\"] = f\"Bearer {token}\"\n")
	case tool.AuthAPIKeyHeader:
		b.WriteString(fmt.Sprintf("    api_key = os.environ.get(%q, \"\")\n", t.AuthEnvVar))
		b.WriteString("    if api_key:\n")
		b.WriteString("        headers[\"X-API-KEY\"] = api_key\n")
	}
}

func isOptionalType(t string) bool {
	return strings.HasPrefix(t, "Optional[")
}

// docstringSafe neutralizes triple quotes so rendered text cannot break out
// of its docstring.
func docstringSafe(s string) string {
	return strings.ReplaceAll(s, `"""`, "'''")
}

// camelCase converts an underscore identifier to CamelCase.
func camelCase(s string) string {
	parts := strings.Split(s, "_")
	var sb strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]))
		sb.WriteString(p[1:])
	}
	return sb.String()
}
