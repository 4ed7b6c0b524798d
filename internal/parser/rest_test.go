package parser

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/karthikpt1/mcpforge/pkg/tool"
)

const petstoreV3 = `{
  "openapi": "3.0.0",
  "info": {"title": "Petstore", "version": "1.0.0"},
  "servers": [{"url": "https://api.petstore.dev/v2"}],
  "components": {
    "securitySchemes": {
      "petAuth": {"type": "http", "scheme": "bearer"}
    },
    "schemas": {
      "Pet": {
        "type": "object",
        "required": ["id", "name"],
        "properties": {
          "id": {"type": "integer"},
          "name": {"type": "string"},
          "tag": {"type": "string", "nullable": true}
        }
      }
    }
  },
  "paths": {
    "/pets": {
      "get": {
        "operationId": "listPets",
        "parameters": [{"name": "limit", "in": "query", "schema": {"type": "integer"}}],
        "responses": {"200": {"description": "ok", "content": {"application/json": {"schema": {"type": "array", "items": {"$ref": "#/components/schemas/Pet"}}}}}}
      },
      "post": {
        "operationId": "createPet",
        "requestBody": {"content": {"application/json": {"schema": {"$ref": "#/components/schemas/Pet"}}}},
        "responses": {"201": {"description": "created", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Pet"}}}}}
      }
    },
    "/pets/{petId}": {
      "get": {
        "operationId": "getPet",
        "parameters": [{"name": "petId", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": {"200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Pet"}}}}}
      }
    }
  }
}`

func parsePetstore(t *testing.T) *Result {
	t.Helper()
	p := &RESTParser{}
	result, err := p.Parse([]byte(petstoreV3), nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return result
}

func findTool(t *testing.T, tools []tool.Tool, name string) *tool.Tool {
	t.Helper()
	for i := range tools {
		if tools[i].Name == name {
			return &tools[i]
		}
	}
	t.Fatalf("tool %q not found", name)
	return nil
}

func TestParseOpenAPI3(t *testing.T) {
	result := parsePetstore(t)

	if result.Flavor != FlavorOpenAPI3 {
		t.Errorf("flavor = %s, want %s", result.Flavor, FlavorOpenAPI3)
	}
	if result.APIName != "Petstore" {
		t.Errorf("api name = %q", result.APIName)
	}
	if len(result.Tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(result.Tools))
	}

	list := findTool(t, result.Tools, "listPets")
	if list.Method != "GET" || list.URL != "https://api.petstore.dev/v2/pets" {
		t.Errorf("listPets = %s %s", list.Method, list.URL)
	}
	if list.Auth != tool.AuthBearer || list.AuthEnvVar != "PETAUTH_TOKEN" {
		t.Errorf("listPets auth = %s / %s", list.Auth, list.AuthEnvVar)
	}
	if limit, ok := list.Args.Get("limit"); !ok || limit != "Optional[int]" {
		t.Errorf("limit arg = %q, %v", limit, ok)
	}
	if list.ResponseModel != "Pet" {
		t.Errorf("listPets response model = %q", list.ResponseModel)
	}

	create := findTool(t, result.Tools, "createPet")
	if create.BodyModel != "Pet" {
		t.Errorf("createPet body model = %q", create.BodyModel)
	}
	if body, ok := create.Args.Get("body"); !ok || body != "Pet" {
		t.Errorf("createPet body arg = %q, %v", body, ok)
	}

	get := findTool(t, result.Tools, "getPet")
	if get.URL != "https://api.petstore.dev/v2/pets/{petId}" {
		t.Errorf("getPet url = %q", get.URL)
	}
	if id, ok := get.Args.Get("petId"); !ok || id != "str" {
		t.Errorf("petId arg = %q, %v", id, ok)
	}

	pet, ok := result.Models["Pet"]
	if !ok {
		t.Fatal("Pet model missing")
	}
	if id, _ := pet.Get("id"); id != "int" {
		t.Errorf("Pet.id = %q", id)
	}
	if name, _ := pet.Get("name"); name != "str" {
		t.Errorf("Pet.name = %q", name)
	}
	if tag, _ := pet.Get("tag"); tag != "Optional[str]" {
		t.Errorf("Pet.tag = %q", tag)
	}
}

func TestParseOpenAPI3Deterministic(t *testing.T) {
	first, err := json.Marshal(parsePetstore(t))
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(parsePetstore(t))
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("same input produced different results")
	}
}

func TestParseOpenAPI3MissingServers(t *testing.T) {
	spec := `{"openapi": "3.0.0", "info": {"title": "X", "version": "1"}, "paths": {"/a": {"get": {"responses": {"200": {"description": "ok"}}}}}}`
	p := &RESTParser{}
	_, err := p.Parse([]byte(spec), nil)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Anchor != "servers" {
		t.Errorf("anchor = %q, want servers", verr.Anchor)
	}
}

func TestParseSwagger2(t *testing.T) {
	spec := `{
  "swagger": "2.0",
  "info": {"title": "Tiny", "version": "1.0"},
  "host": "api.example.com",
  "schemes": ["https"],
  "basePath": "/v1",
  "paths": {"/x": {"get": {"operationId": "getX", "responses": {"200": {"description": "ok"}}}}}
}`
	p := &RESTParser{}
	result, err := p.Parse([]byte(spec), nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.Flavor != FlavorSwagger2 {
		t.Errorf("flavor = %s", result.Flavor)
	}
	if len(result.Tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(result.Tools))
	}
	if result.Tools[0].URL != "https://api.example.com/v1/x" {
		t.Errorf("url = %q", result.Tools[0].URL)
	}
}

func TestParseSwagger2MissingBaseAnchors(t *testing.T) {
	// No base URL anchors at all: must not yield tools.
	bare := `{"swagger": "2.0", "paths": {"/x": {"get": {}}}}`
	p := &RESTParser{}
	if _, err := p.Parse([]byte(bare), nil); err == nil {
		t.Fatal("expected error for swagger doc without host/schemes/basePath")
	}

	tests := []struct {
		name   string
		spec   string
		anchor string
	}{
		{
			"missing host",
			`{"swagger": "2.0", "info": {"title": "T", "version": "1"}, "schemes": ["https"], "basePath": "/v1", "paths": {"/x": {"get": {"responses": {"200": {"description": "ok"}}}}}}`,
			"host",
		},
		{
			"missing schemes",
			`{"swagger": "2.0", "info": {"title": "T", "version": "1"}, "host": "api.example.com", "basePath": "/v1", "paths": {"/x": {"get": {"responses": {"200": {"description": "ok"}}}}}}`,
			"schemes",
		},
		{
			"missing basePath",
			`{"swagger": "2.0", "info": {"title": "T", "version": "1"}, "host": "api.example.com", "schemes": ["https"], "paths": {"/x": {"get": {"responses": {"200": {"description": "ok"}}}}}}`,
			"basePath",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse([]byte(tt.spec), nil)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Anchor != tt.anchor {
				t.Errorf("anchor = %q, want %q", verr.Anchor, tt.anchor)
			}
		})
	}
}

func TestParseGarbage(t *testing.T) {
	p := &RESTParser{}
	_, err := p.Parse([]byte(`{"openapi": `), nil)
	var ferr *FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestOperationNameFallback(t *testing.T) {
	spec := `{
  "openapi": "3.0.0",
  "info": {"title": "X", "version": "1"},
  "servers": [{"url": "https://api.example.com"}],
  "paths": {"/users/{id}/posts": {"get": {"responses": {"200": {"description": "ok"}}}}}
}`
	p := &RESTParser{}
	result, err := p.Parse([]byte(spec), nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := result.Tools[0]
	if got.Name != "get_users_id_posts" {
		t.Errorf("fallback name = %q", got.Name)
	}
	// The undeclared {id} placeholder still becomes an argument.
	if idType, ok := got.Args.Get("id"); !ok || idType != "str" {
		t.Errorf("id arg = %q, %v", idType, ok)
	}
}

func TestEmptyRequestBodyPlaceholder(t *testing.T) {
	spec := `{
  "openapi": "3.0.0",
  "info": {"title": "X", "version": "1"},
  "servers": [{"url": "https://api.example.com"}],
  "paths": {"/ping": {"post": {"operationId": "sendPing", "requestBody": {"content": {"application/json": {"schema": {"type": "object"}}}}, "responses": {"200": {"description": "ok"}}}}}
}`
	p := &RESTParser{}
	result, err := p.Parse([]byte(spec), nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := result.Tools[0]
	if got.BodyModel == "" {
		t.Fatal("expected placeholder body model")
	}
	fields, ok := result.Models[got.BodyModel]
	if !ok {
		t.Fatalf("placeholder model %q not registered", got.BodyModel)
	}
	if data, _ := fields.Get("data"); data != "dict" {
		t.Errorf("placeholder field = %q, want dict", data)
	}
}

func TestSwagger2NoPayloadNoBodyModel(t *testing.T) {
	spec := `{
  "swagger": "2.0",
  "info": {"title": "Tiny", "version": "1.0"},
  "host": "api.example.com",
  "schemes": ["https"],
  "basePath": "/v1",
  "paths": {"/ping": {"post": {"operationId": "sendPing", "responses": {"200": {"description": "ok"}}}}}
}`
	p := &RESTParser{}
	result, err := p.Parse([]byte(spec), nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := result.Tools[0]
	if got.BodyModel != "" {
		t.Errorf("operation without a payload got body model %q", got.BodyModel)
	}
	if _, ok := got.Args.Get("body"); ok {
		t.Error("operation without a payload got a body argument")
	}
	if len(result.Models) != 0 {
		t.Errorf("expected no models, got %d", len(result.Models))
	}
}

func TestSwagger2EmptyBodySchemaPlaceholder(t *testing.T) {
	spec := `{
  "swagger": "2.0",
  "info": {"title": "Tiny", "version": "1.0"},
  "host": "api.example.com",
  "schemes": ["https"],
  "basePath": "/v1",
  "paths": {"/ping": {"post": {
    "operationId": "sendPing",
    "parameters": [{"name": "payload", "in": "body", "schema": {"type": "object"}}],
    "responses": {"200": {"description": "ok"}}
  }}}
}`
	p := &RESTParser{}
	result, err := p.Parse([]byte(spec), nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := result.Tools[0]
	if got.BodyModel == "" {
		t.Fatal("declared payload with empty schema should get a placeholder body model")
	}
	fields, ok := result.Models[got.BodyModel]
	if !ok {
		t.Fatalf("placeholder model %q not registered", got.BodyModel)
	}
	if data, _ := fields.Get("data"); data != "dict" {
		t.Errorf("placeholder field = %q, want dict", data)
	}
}

func TestSwagger2GetIgnoresBodyParam(t *testing.T) {
	spec := `{
  "swagger": "2.0",
  "info": {"title": "Tiny", "version": "1.0"},
  "host": "api.example.com",
  "schemes": ["https"],
  "basePath": "/v1",
  "definitions": {"Filter": {"type": "object", "required": ["q"], "properties": {"q": {"type": "string"}}}},
  "paths": {"/search": {"get": {
    "operationId": "search",
    "parameters": [
      {"name": "limit", "in": "query", "type": "integer"},
      {"name": "filter", "in": "body", "schema": {"$ref": "#/definitions/Filter"}}
    ],
    "responses": {"200": {"description": "ok"}}
  }}}
}`
	p := &RESTParser{}
	result, err := p.Parse([]byte(spec), nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := result.Tools[0]
	if got.BodyModel != "" {
		t.Errorf("GET got body model %q", got.BodyModel)
	}
	if _, ok := got.Args.Get("body"); ok {
		t.Error("GET got a body argument it could never send")
	}
	if limit, ok := got.Args.Get("limit"); !ok || limit != "Optional[int]" {
		t.Errorf("limit arg = %q, %v", limit, ok)
	}
}

func TestSelfReferentialSchemaTerminates(t *testing.T) {
	spec := `{
  "openapi": "3.0.0",
  "info": {"title": "X", "version": "1"},
  "servers": [{"url": "https://api.example.com"}],
  "components": {"schemas": {"Node": {
    "type": "object",
    "required": ["name"],
    "properties": {
      "name": {"type": "string"},
      "next": {"$ref": "#/components/schemas/Node"}
    }
  }}},
  "paths": {"/nodes": {"get": {
    "operationId": "getNode",
    "responses": {"200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Node"}}}}}
  }}}
}`
	p := &RESTParser{}
	result, err := p.Parse([]byte(spec), nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	got := result.Tools[0]
	if got.ResponseModel == "" {
		t.Fatal("self-referential response schema should still yield a model")
	}
	if len(result.Models) > maxSchemaDepth {
		t.Fatalf("model count %d exceeds the recursion bound %d", len(result.Models), maxSchemaDepth)
	}

	// The innermost level of the chain collapses to the generic object type.
	collapsed := false
	for name, fields := range result.Models {
		next, ok := fields.Get("next")
		if !ok {
			t.Errorf("model %s lost its next field", name)
			continue
		}
		if next == "Optional[dict]" {
			collapsed = true
		}
	}
	if !collapsed {
		t.Error("recursion never collapsed to Optional[dict]")
	}
}

func TestUntypedSchemaMapsToObject(t *testing.T) {
	spec := `{
  "openapi": "3.0.0",
  "info": {"title": "X", "version": "1"},
  "servers": [{"url": "https://api.example.com"}],
  "components": {"schemas": {"Widget": {
    "type": "object",
    "required": ["id"],
    "properties": {"id": {"type": "integer"}, "meta": {}}
  }}},
  "paths": {"/widgets": {"get": {
    "operationId": "listWidgets",
    "responses": {"200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Widget"}}}}}
  }}}
}`
	p := &RESTParser{}
	result, err := p.Parse([]byte(spec), nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	widget, ok := result.Models["Widget"]
	if !ok {
		t.Fatal("Widget model missing")
	}
	if meta, _ := widget.Get("meta"); meta != "Optional[dict]" {
		t.Errorf("untyped property = %q, want Optional[dict]", meta)
	}
}

func TestManagerDetect(t *testing.T) {
	m := NewManager()
	tests := []struct {
		content string
		want    Flavor
	}{
		{`{"openapi": "3.0.0"}`, FlavorOpenAPI3},
		{`swagger: "2.0"`, FlavorSwagger2},
		{`<definitions xmlns="http://schemas.xmlsoap.org/wsdl/"/>`, FlavorWSDL11},
	}
	for _, tt := range tests {
		got, err := m.Detect([]byte(tt.content))
		if err != nil {
			t.Errorf("Detect(%q) error: %v", tt.content, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Detect(%q) = %s, want %s", tt.content, got, tt.want)
		}
	}

	if _, err := m.Detect([]byte("plain text")); err == nil {
		t.Error("expected error for unrecognized content")
	}
}
