package generator

import (
	"fmt"
	"strings"

	"github.com/karthikpt1/mcpforge/pkg/tool"
)

// SOAPGenerator renders a FastMCP server that fronts a SOAP 1.1 service
// with raw envelope construction.
type SOAPGenerator struct{}

func (g *SOAPGenerator) Name() string {
	return "soap"
}

func (g *SOAPGenerator) Generate(req *Request) (string, error) {
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

func (g *SOAPGenerator) renderTool(b *strings.Builder, t *tool.Tool) {
	b.WriteString("@mcp.tool()\n")
	b.WriteString(fmt.Sprintf("def %s(%s) -> dict:\n", t.Name, signature(t)))
	b.WriteString(fmt.Sprintf("    \"\"\"%s\"\"\"\n", docstringSafe(t.Description)))
	b.WriteString(fmt.Sprintf("    url = \"%s\"\n", t.URL))

	// Envelope children, one element per argument. Optional arguments are
	// omitted when unset.
	b.WriteString("    parts = []\n")
	for pair := t.Args.Oldest(); pair != nil; pair = pair.Next() {
		name := pair.Key
		element := fmt.Sprintf("    parts.append(f\"<%s>{%s}</%s>\")\n", name, name, name)
		if isOptionalType(pair.Value) {
			b.WriteString(fmt.Sprintf("    if %s is not None:\n", name))
			b.WriteString("    " + element)
		} else {
			b.WriteString(element)
		}
	}

	wrapper := g.wrapperElement(t)
	namespace := ""
	action := ""
	if t.SOAP != nil {
		namespace = t.SOAP.Namespace
		action = t.SOAP.Action
	}

	b.WriteString("    envelope = (\n")
	b.WriteString("        '<?xml version=\"1.0\" encoding=\"UTF-8\"?>'\n")
	b.WriteString("        '<soap:Envelope xmlns:soap=\"http://schemas.xmlsoap.org/soap/envelope/\">'\n")
	b.WriteString("        \"<soap:Body>\"\n")
	b.WriteString(fmt.Sprintf("        f'<%s xmlns=\"%s\">{\"\".join(parts)}</%s>'\n", wrapper, namespace, wrapper))
	b.WriteString("        \"</soap:Body>\"\n")
	b.WriteString("        \"</soap:Envelope>\"\n")
	b.WriteString("    )\n")

	b.WriteString("    headers = {\"Content-Type\": \"text/xml; charset=utf-8\"}\n")
	b.WriteString(fmt.Sprintf("    headers[\"SOAPAction\"] = '\"%s\"'\n", action))

	b.WriteString("    try:\n")
	b.WriteString(fmt.Sprintf(
		"        response = session.post(url, data=envelope.encode(\"utf-8\"), headers=headers, timeout=%d)\n",
		requestTimeout))
	b.WriteString("        response.raise_for_status()\n")
	b.WriteString("        return {\"status\": response.status_code, \"body\": response.text}\n")
	b.WriteString("    except requests.RequestException as exc:\n")
	b.WriteString("        return {\"error\": str(exc), \"url_attempted\": url}\n")
	b.WriteString("\n\n")
}

// wrapperElement picks the element wrapping the envelope children: the
// schema element for document style, the operation name for rpc style.
func (g *SOAPGenerator) wrapperElement(t *tool.Tool) string {
	if t.SOAP != nil && t.SOAP.Style == "document" && t.BodyModel != "" {
		return t.BodyModel
	}
	return t.Method
}
