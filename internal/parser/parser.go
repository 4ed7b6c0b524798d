// Package parser turns API descriptions (OpenAPI 3.x, Swagger 2.0, WSDL 1.1)
// into the normalized tool representation.
package parser

import (
	"bytes"

	"github.com/karthikpt1/mcpforge/pkg/tool"
)

// Flavor identifies the concrete description dialect. It is resolved once at
// parse entry and carried on the result; nothing downstream re-detects.
type Flavor string

const (
	FlavorOpenAPI3 Flavor = "openapi3"
	FlavorSwagger2 Flavor = "swagger2"
	FlavorWSDL11   Flavor = "wsdl11"
)

// Options holds parser options.
type Options struct {
	// APIName overrides the name taken from the description's info block.
	APIName string
}

// Result is the outcome of parsing one API description.
type Result struct {
	APIName string      `json:"api_name"`
	Flavor  Flavor      `json:"flavor"`
	Tools   []tool.Tool `json:"tools"`
	Models  tool.Models `json:"models"`
}

// Parser defines the interface for description parsers.
type Parser interface {
	// Name returns the parser name.
	Name() string
	// CanHandle reports whether this parser recognizes the content.
	CanHandle(content []byte) bool
	// Parse transforms the content into tools and models.
	Parse(content []byte, opts *Options) (*Result, error)
}

// Manager manages available parsers.
type Manager struct {
	parsers []Parser
}

// NewManager creates a manager with all built-in parsers.
func NewManager() *Manager {
	m := &Manager{}
	m.Register(&WSDLParser{})
	m.Register(&RESTParser{})
	return m
}

// Register adds a parser to the manager.
func (m *Manager) Register(p Parser) {
	m.parsers = append(m.parsers, p)
}

// Parse runs the first parser that recognizes the content.
func (m *Manager) Parse(content []byte, opts *Options) (*Result, error) {
	for _, p := range m.parsers {
		if p.CanHandle(content) {
			return p.Parse(content, opts)
		}
	}
	return nil, &FormatError{Detail: "unrecognized API description format: expected OpenAPI, Swagger or WSDL"}
}

// Detect resolves the description flavor without a full parse.
func (m *Manager) Detect(content []byte) (Flavor, error) {
	content = stripBOM(content)
	switch {
	case bytes.Contains(content, []byte("<definitions")) ||
		bytes.Contains(content, []byte(":definitions")):
		return FlavorWSDL11, nil
	case bytes.Contains(content, []byte(`"openapi"`)) ||
		bytes.Contains(content, []byte("openapi:")):
		return FlavorOpenAPI3, nil
	case bytes.Contains(content, []byte(`"swagger"`)) ||
		bytes.Contains(content, []byte("swagger:")):
		return FlavorSwagger2, nil
	}
	return "", &FormatError{Detail: "unrecognized API description format: expected OpenAPI, Swagger or WSDL"}
}

// SupportedFlavors lists the flavors the built-in parsers accept.
func (m *Manager) SupportedFlavors() []Flavor {
	return []Flavor{FlavorOpenAPI3, FlavorSwagger2, FlavorWSDL11}
}

// stripBOM removes a UTF-8 BOM if present at the beginning of content.
func stripBOM(content []byte) []byte {
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return content[3:]
	}
	return content
}
