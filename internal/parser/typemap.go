package parser

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/karthikpt1/mcpforge/pkg/tool"
)

// maxSchemaDepth bounds recursion through nested and self-referential
// schemas. Anything deeper collapses to the generic object type.
const maxSchemaDepth = 20

// modelSet accumulates extracted models with structural deduplication:
// two schemas with identical field shapes share one model definition, no
// matter how many operations reference them.
type modelSet struct {
	models tool.Models
	byHash map[uint64]string
	used   map[string]bool
}

func newModelSet() *modelSet {
	return &modelSet{
		models: tool.Models{},
		byHash: map[uint64]string{},
		used:   map[string]bool{},
	}
}

// register stores fields under a name derived from base, reusing an existing
// model when the field shape was seen before and suffixing the name when a
// different shape already claimed it.
func (s *modelSet) register(base string, fields tool.Fields) string {
	h := hashFields(fields)
	if name, ok := s.byHash[h]; ok {
		return name
	}

	base = tool.SanitizeName(base)
	name := base
	for i := 2; s.used[name]; i++ {
		name = fmt.Sprintf("%s%d", base, i)
	}
	s.used[name] = true
	s.byHash[h] = name
	s.models[name] = fields
	return name
}

// fieldsContain reports whether a registered model has a field with the
// given name.
func (s *modelSet) fieldsContain(model, field string) bool {
	fields, ok := s.models[model]
	if !ok {
		return false
	}
	_, ok = fields.Get(field)
	return ok
}

// hashFields computes an order-independent structural hash of a field
// mapping.
func hashFields(fields tool.Fields) uint64 {
	pairs := make([]string, 0, fields.Len())
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		pairs = append(pairs, pair.Key+":"+pair.Value)
	}
	sort.Strings(pairs)

	h := fnv.New64a()
	h.Write([]byte(strings.Join(pairs, ";")))
	return h.Sum64()
}

// refTail extracts the trailing segment of a reference pointer, the
// best-effort type name when a reference cannot be resolved. Two unresolved
// references with the same tail intentionally share a name.
func refTail(ref string) string {
	if idx := strings.LastIndex(ref, "/"); idx >= 0 {
		ref = ref[idx+1:]
	}
	return tool.SanitizeName(ref)
}

// scalarType maps an OpenAPI/JSON-schema scalar type keyword to the
// normalized marker. Unknown keywords degrade to string.
func scalarType(t string) string {
	switch t {
	case "integer":
		return tool.TypeInt
	case "number":
		return tool.TypeFloat
	case "boolean":
		return tool.TypeBool
	case "string":
		return tool.TypeString
	}
	return tool.TypeString
}

// capitalize upper-cases the first byte of an identifier, the convention for
// model names derived from field or resource names.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// resourceName derives the model base name from a tool name: the last
// underscore-separated segment, capitalized.
func resourceName(toolName string) string {
	parts := strings.Split(toolName, "_")
	return capitalize(parts[len(parts)-1])
}
