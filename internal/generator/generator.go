// Package generator renders normalized tools into runnable MCP server
// source code in Python, plus the shared rendering building blocks.
package generator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/karthikpt1/mcpforge/pkg/tool"
)

// Request carries everything one generation run needs. The generator holds
// no state between runs.
type Request struct {
	APIName string
	Tools   []tool.Tool
	Models  tool.Models
	Prompts []tool.Prompt
}

// Generator renders a complete server source file from a request.
type Generator interface {
	// Name returns the generator name.
	Name() string
	// Generate renders the server source. Output is deterministic: the
	// same request always produces byte-identical source.
	Generate(req *Request) (string, error)
}

// MixedToolsError reports a tool set that mixes REST and SOAP operations.
// One generated server speaks one protocol; mixing is rejected rather than
// silently dropping either subset.
type MixedToolsError struct {
	REST []string
	SOAP []string
}

func (e *MixedToolsError) Error() string {
	return fmt.Sprintf("cannot generate one server from mixed tool kinds: REST tools %v, SOAP tools %v",
		e.REST, e.SOAP)
}

// ConsistencyError reports a tool referencing a model that is not defined.
// This is an internal pipeline defect, not a user input problem.
type ConsistencyError struct {
	Tool  string
	Model string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("tool %q references undefined model %q", e.Tool, e.Model)
}

// Dispatch picks the generator for a tool set: SOAP when every tool is
// SOAP, REST when none is, an error otherwise.
func Dispatch(tools []tool.Tool) (Generator, error) {
	if len(tools) == 0 {
		return nil, errors.New("no tools to generate a server from")
	}

	var rest, soap []string
	for i := range tools {
		if tools[i].IsSOAP() {
			soap = append(soap, tools[i].Name)
		} else {
			rest = append(rest, tools[i].Name)
		}
	}
	if len(rest) > 0 && len(soap) > 0 {
		return nil, &MixedToolsError{REST: rest, SOAP: soap}
	}
	if len(soap) > 0 {
		return &SOAPGenerator{}, nil
	}
	return &RESTGenerator{}, nil
}

// Generate dispatches and renders in one step.
func Generate(req *Request) (string, error) {
	g, err := Dispatch(req.Tools)
	if err != nil {
		return "", err
	}
	return g.Generate(req)
}

// checkConsistency verifies every model a tool names is present in the
// filtered model set.
func checkConsistency(tools []tool.Tool, models tool.Models) error {
	for i := range tools {
		if m := tools[i].BodyModel; m != "" {
			if _, ok := models[m]; !ok {
				return &ConsistencyError{Tool: tools[i].Name, Model: m}
			}
		}
		if m := tools[i].ResponseModel; m != "" {
			if _, ok := models[m]; !ok {
				return &ConsistencyError{Tool: tools[i].Name, Model: m}
			}
		}
	}
	return nil
}

// ServerFileName derives the generated server's file name from the API
// name.
func ServerFileName(apiName string) string {
	return strings.ToLower(tool.SanitizeName(apiName)) + "_server.py"
}
