// Package tool provides the intermediate representation shared between
// description parsers and code generators: tools, models and prompts.
package tool

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Normalized scalar type markers. Collection and optional types are built
// with List and Optional.
const (
	TypeString = "str"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
	// TypeObject is the generic untyped-object marker used when a schema
	// carries no usable structure.
	TypeObject = "dict"
)

// AuthType identifies how a tool authenticates against its upstream API.
type AuthType string

const (
	AuthNone         AuthType = "None"
	AuthBearer       AuthType = "Bearer Token"
	AuthAPIKeyHeader AuthType = "API Key (Header)"
)

// Fields is an insertion-ordered mapping of field name to normalized type
// string. Order matters: it drives generated function signatures and model
// field order.
type Fields = *orderedmap.OrderedMap[string, string]

// NewFields creates an empty ordered field mapping.
func NewFields() Fields {
	return orderedmap.New[string, string]()
}

// Models is a flat mapping of model name to its field mapping. Model
// definitions are never nested; nested objects reference other models by
// name inside type strings.
type Models map[string]Fields

// SOAPBinding carries the SOAP-specific attributes of a tool. A tool is a
// SOAP tool exactly when this is non-nil, so an empty soapAction attribute
// on the binding still marks the tool as SOAP.
type SOAPBinding struct {
	Action    string `json:"action"`
	Style     string `json:"style"` // document or rpc
	Namespace string `json:"namespace"`
}

// Tool is one callable operation extracted from an API description.
type Tool struct {
	Name          string       `json:"name"`
	URL           string       `json:"url"`
	Method        string       `json:"method"`
	Auth          AuthType     `json:"auth"`
	AuthEnvVar    string       `json:"auth_env_var,omitempty"`
	Args          Fields       `json:"args"`
	BodyModel     string       `json:"body_model,omitempty"`
	ResponseModel string       `json:"response_model,omitempty"`
	HasFileFields bool         `json:"has_file_fields,omitempty"`
	Description   string       `json:"description"`
	SOAP          *SOAPBinding `json:"soap,omitempty"`
}

// IsSOAP reports whether the tool wraps a SOAP operation.
func (t *Tool) IsSOAP() bool {
	return t.SOAP != nil
}

// Prompt is a prompt template produced by an external generator and linked
// to a tool by name.
type Prompt struct {
	Name        string `json:"name"`
	Args        string `json:"args"` // comma-joined argument names
	Text        string `json:"text"`
	Description string `json:"description"`
}

// ArgNames returns the prompt's declared argument names, trimmed.
func (p *Prompt) ArgNames() []string {
	if strings.TrimSpace(p.Args) == "" {
		return nil
	}
	parts := strings.Split(p.Args, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

var (
	namePattern      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	pathParamPattern = regexp.MustCompile(`\{([^{}]+)\}`)
	invalidNameChars = regexp.MustCompile(`[^A-Za-z0-9_]`)
	placeholderScan  = pathParamPattern
)

// ValidName reports whether name is a valid generated-code identifier.
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// SanitizeName rewrites an arbitrary operation or path name into a valid
// identifier. Path separators and braces collapse to underscores.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "{", "")
	name = strings.ReplaceAll(name, "}", "")
	name = invalidNameChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")
	for strings.Contains(name, "__") {
		name = strings.ReplaceAll(name, "__", "_")
	}
	if name == "" {
		return "_"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// PathParams returns the {name} placeholders of a URL template, in order.
func PathParams(url string) []string {
	matches := pathParamPattern.FindAllStringSubmatch(url, -1)
	params := make([]string, 0, len(matches))
	for _, m := range matches {
		params = append(params, m[1])
	}
	return params
}

// Placeholders returns the {name} placeholders of a prompt template.
func Placeholders(text string) []string {
	matches := placeholderScan.FindAllStringSubmatch(text, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// List wraps an element type into the collection marker.
func List(elem string) string {
	return "list[" + elem + "]"
}

// Optional wraps a type into the optional marker. Wrapping is idempotent.
func Optional(t string) string {
	if strings.HasPrefix(t, "Optional[") {
		return t
	}
	return "Optional[" + t + "]"
}

// Unwrap strips Optional and list wrappers from a type string and returns
// the innermost type token.
func Unwrap(t string) string {
	for {
		switch {
		case strings.HasPrefix(t, "Optional[") && strings.HasSuffix(t, "]"):
			t = t[len("Optional[") : len(t)-1]
		case strings.HasPrefix(t, "list[") && strings.HasSuffix(t, "]"):
			t = t[len("list[") : len(t)-1]
		default:
			return t
		}
	}
}

// IsScalar reports whether t is one of the normalized scalar markers.
func IsScalar(t string) bool {
	switch t {
	case TypeString, TypeInt, TypeFloat, TypeBool:
		return true
	}
	return false
}

// EnvVars returns the distinct credential environment-variable names across
// all authenticated tools, sorted for deterministic output.
func EnvVars(tools []Tool) []string {
	seen := make(map[string]bool)
	for i := range tools {
		if tools[i].Auth != AuthNone && tools[i].AuthEnvVar != "" {
			seen[tools[i].AuthEnvVar] = true
		}
	}
	vars := make([]string, 0, len(seen))
	for v := range seen {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

// Validate checks the structural invariants of a tool: a valid name, path
// parameters declared in args, and a credential variable present exactly
// when auth is set.
func (t *Tool) Validate() error {
	if !ValidName(t.Name) {
		return fmt.Errorf("tool name %q is not a valid identifier", t.Name)
	}
	for _, param := range PathParams(t.URL) {
		if t.Args == nil {
			return fmt.Errorf("tool %q: path parameter %q has no matching argument", t.Name, param)
		}
		if _, ok := t.Args.Get(param); !ok {
			return fmt.Errorf("tool %q: path parameter %q has no matching argument", t.Name, param)
		}
	}
	if t.Auth != AuthNone && t.AuthEnvVar == "" {
		return fmt.Errorf("tool %q: auth %q requires an environment variable name", t.Name, t.Auth)
	}
	if t.Auth == AuthNone && t.AuthEnvVar != "" {
		return fmt.Errorf("tool %q: auth_env_var set without an auth mechanism", t.Name)
	}
	return nil
}
