// Package prompt handles prompt templates for generated servers: the
// producer boundary to an external model, the line-oriented reply parser,
// and the linker that validates prompts against the tool set.
package prompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/karthikpt1/mcpforge/pkg/tool"
)

// Producer turns a tool set into a raw prompt-suggestion reply, typically
// by calling an external LLM. The pipeline never depends on a concrete
// provider.
type Producer interface {
	Produce(ctx context.Context, tools []tool.Tool) (string, error)
}

// LinkError reports a prompt that cannot be attached to the tool set.
type LinkError struct {
	Prompt string
	Reason string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("prompt %q cannot be linked: %s", e.Prompt, e.Reason)
}

// RequestText renders the instruction sent to a producer: one prompt per
// tool, in a fixed line-oriented reply format.
func RequestText(tools []tool.Tool) string {
	var b strings.Builder
	b.WriteString("Write one usage prompt per API tool below.\n")
	b.WriteString("Answer with blocks separated by a line containing only ---\n")
	b.WriteString("Each block has exactly these lines:\n")
	b.WriteString("Tool: <tool name>\n")
	b.WriteString("Name: <prompt name>\n")
	b.WriteString("Arguments: <comma separated argument names, may be empty>\n")
	b.WriteString("Description: <one line>\n")
	b.WriteString("Text: <prompt template, argument placeholders in single braces>\n\n")
	b.WriteString("Tools:\n")
	for i := range tools {
		b.WriteString(fmt.Sprintf("- %s (%s %s): %s\n",
			tools[i].Name, tools[i].Method, tools[i].URL, tools[i].Description))
	}
	return b.String()
}

// ParseResponse parses a producer reply in the block format described by
// RequestText. Unknown lines extend the running Text value; malformed
// blocks without a tool line are dropped. Doubled braces collapse to
// single ones, and the prompt name is forced to the tool name so the link
// step can match by name alone.
func ParseResponse(reply string) []tool.Prompt {
	var prompts []tool.Prompt

	var current tool.Prompt
	var toolName string
	var text []string
	inText := false

	flush := func() {
		if toolName != "" {
			current.Name = toolName
			current.Text = cleanBraces(strings.TrimSpace(strings.Join(text, "\n")))
			prompts = append(prompts, current)
		}
		current = tool.Prompt{}
		toolName = ""
		text = nil
		inText = false
	}

	for _, line := range strings.Split(reply, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "---":
			flush()
		case strings.HasPrefix(trimmed, "Tool:"):
			toolName = strings.TrimSpace(strings.TrimPrefix(trimmed, "Tool:"))
			inText = false
		case strings.HasPrefix(trimmed, "Name:"):
			// Ignored: the prompt is named after its tool.
			inText = false
		case strings.HasPrefix(trimmed, "Arguments:"):
			current.Args = strings.TrimSpace(strings.TrimPrefix(trimmed, "Arguments:"))
			inText = false
		case strings.HasPrefix(trimmed, "Description:"):
			current.Description = strings.TrimSpace(strings.TrimPrefix(trimmed, "Description:"))
			inText = false
		case strings.HasPrefix(trimmed, "Text:"):
			text = append(text, strings.TrimSpace(strings.TrimPrefix(trimmed, "Text:")))
			inText = true
		case inText && trimmed != "":
			text = append(text, trimmed)
		}
	}
	flush()

	return prompts
}

// Link validates prompts against the tool set: every prompt must name an
// existing tool and every placeholder in its text must be a declared
// argument. Colliding names are suffixed _2, _3, ... so every surviving
// prompt renders as a distinct definition.
func Link(prompts []tool.Prompt, tools []tool.Tool) ([]tool.Prompt, error) {
	known := make(map[string]bool, len(tools))
	for i := range tools {
		known[tools[i].Name] = true
	}

	linked := make([]tool.Prompt, 0, len(prompts))
	used := make(map[string]bool, len(prompts))
	for _, p := range prompts {
		if !known[p.Name] {
			return nil, &LinkError{Prompt: p.Name, Reason: "no tool with that name"}
		}

		declared := make(map[string]bool)
		for _, a := range p.ArgNames() {
			declared[a] = true
		}
		for _, ph := range tool.Placeholders(p.Text) {
			if !declared[ph] {
				return nil, &LinkError{
					Prompt: p.Name,
					Reason: fmt.Sprintf("placeholder {%s} is not a declared argument", ph),
				}
			}
		}

		name := p.Name
		for i := 2; used[name]; i++ {
			name = fmt.Sprintf("%s_%d", p.Name, i)
		}
		used[name] = true
		p.Name = name
		linked = append(linked, p)
	}
	return linked, nil
}

// Generate runs the full producer round trip: request, parse, link.
func Generate(ctx context.Context, producer Producer, tools []tool.Tool) ([]tool.Prompt, error) {
	reply, err := producer.Produce(ctx, tools)
	if err != nil {
		return nil, fmt.Errorf("prompt producer: %w", err)
	}
	return Link(ParseResponse(reply), tools)
}

func cleanBraces(s string) string {
	s = strings.ReplaceAll(s, "{{", "{")
	s = strings.ReplaceAll(s, "}}", "}")
	return s
}
