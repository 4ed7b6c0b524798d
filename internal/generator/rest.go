package generator

import (
	"fmt"
	"strings"

	"github.com/karthikpt1/mcpforge/pkg/tool"
)

// RESTGenerator renders a FastMCP server that fronts a REST API.
type RESTGenerator struct{}

func (g *RESTGenerator) Name() string {
	return "rest"
}

func (g *RESTGenerator) Generate(req *Request) (string, error) {
	models := tool.FilterModels(req.Tools, req.Models)
	if err := checkConsistency(req.Tools, models); err != nil {
		return "", err
	}

	var b strings.Builder
	renderHeader(&b, req.APIName)
	renderModels(&b, models)
	renderAliases(&b, req.Tools, models)
	for i := range req.Tools {
		g.renderTool(&b, &req.Tools[i])
	}
	renderPrompts(&b, req.Prompts)
	renderFooter(&b)
	return b.String(), nil
}

func (g *RESTGenerator) renderTool(b *strings.Builder, t *tool.Tool) {
	pathParams := make(map[string]bool)
	for _, p := range tool.PathParams(t.URL) {
		pathParams[p] = true
	}

	b.WriteString("@mcp.tool()\n")
	b.WriteString(fmt.Sprintf("def %s(%s) -> dict:\n", t.Name, signature(t)))
	b.WriteString(fmt.Sprintf("    \"\"\"%s\"\"\"\n", docstringSafe(t.Description)))
	if t.HasFileFields {
		b.WriteString("    # This operation declares file fields; payloads are sent as JSON.\n")
	}

	if len(pathParams) > 0 {
		b.WriteString(fmt.Sprintf("    url = f\"%s\"\n", t.URL))
	} else {
		b.WriteString(fmt.Sprintf("    url = \"%s\"\n", t.URL))
	}

	renderAuthHeaders(b, t)

	b.WriteString("    params = {}\n")
	for pair := t.Args.Oldest(); pair != nil; pair = pair.Next() {
		name := pair.Key
		if name == "body" || pathParams[name] {
			continue
		}
		if isOptionalType(pair.Value) {
			b.WriteString(fmt.Sprintf("    if %s is not None:\n", name))
			b.WriteString(fmt.Sprintf("        params[%q] = %s\n", name, name))
		} else {
			b.WriteString(fmt.Sprintf("    params[%q] = %s\n", name, name))
		}
	}

	sendsBody := t.BodyModel != "" && t.Method != "GET"
	verb := strings.ToLower(t.Method)

	b.WriteString("    try:\n")
	if sendsBody {
		b.WriteString(fmt.Sprintf(
			"        response = session.%s(url, headers=headers, params=params, json=body.model_dump(exclude_none=True), timeout=%d)\n",
			verb, requestTimeout))
	} else {
		b.WriteString(fmt.Sprintf(
			"        response = session.%s(url, headers=headers, params=params, timeout=%d)\n",
			verb, requestTimeout))
	}
	b.WriteString("        response.raise_for_status()\n")
	b.WriteString("        try:\n")
	b.WriteString("            return response.json()\n")
	b.WriteString("        except ValueError:\n")
	b.WriteString("            return {\"status\": response.status_code, \"body\": response.text}\n")
	b.WriteString("    except requests.RequestException as exc:\n")
	b.WriteString("        return {\"error\": str(exc), \"url_attempted\": url}\n")
	b.WriteString("\n\n")
}
