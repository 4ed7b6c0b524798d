package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pb33f/libopenapi"
	"github.com/pb33f/libopenapi/datamodel/high/base"
	v2 "github.com/pb33f/libopenapi/datamodel/high/v2"
	v3 "github.com/pb33f/libopenapi/datamodel/high/v3"

	"github.com/karthikpt1/mcpforge/pkg/tool"
)

// RESTParser handles OpenAPI 3.x and Swagger 2.0 descriptions, in JSON or
// YAML.
type RESTParser struct{}

func (p *RESTParser) Name() string {
	return "rest"
}

func (p *RESTParser) CanHandle(content []byte) bool {
	return bytes.Contains(content, []byte("openapi:")) ||
		bytes.Contains(content, []byte(`"openapi"`)) ||
		bytes.Contains(content, []byte("swagger:")) ||
		bytes.Contains(content, []byte(`"swagger"`))
}

func (p *RESTParser) Parse(content []byte, opts *Options) (*Result, error) {
	content = stripBOM(content)

	doc, err := libopenapi.NewDocument(content)
	if err != nil {
		return nil, &FormatError{Detail: "not valid JSON or YAML, or not an OpenAPI/Swagger document", Err: err}
	}

	version := doc.GetVersion()
	if strings.HasPrefix(version, "3.") {
		model, err := doc.BuildV3Model()
		if err != nil {
			return nil, &FormatError{Flavor: FlavorOpenAPI3, Detail: "failed to build OpenAPI 3.x model", Err: err}
		}
		return p.buildV3(model, opts)
	}
	if strings.HasPrefix(version, "2.") {
		model, err := doc.BuildV2Model()
		if err != nil {
			return nil, &FormatError{Flavor: FlavorSwagger2, Detail: "failed to build Swagger 2.0 model", Err: err}
		}
		return p.buildV2(model, opts)
	}
	return nil, &FormatError{Detail: fmt.Sprintf("unsupported OpenAPI version %q, supported versions are 2.x and 3.x", version)}
}

// restBuild holds the shared state of one REST parse: the model set and the
// auth scheme resolved from the document's security definitions.
type restBuild struct {
	set        *modelSet
	auth       tool.AuthType
	authEnvVar string
}

func (p *RESTParser) buildV3(model *libopenapi.DocumentModel[v3.Document], opts *Options) (*Result, error) {
	doc := model.Model

	apiName := "API"
	if opts != nil && opts.APIName != "" {
		apiName = opts.APIName
	} else if doc.Info != nil && doc.Info.Title != "" {
		apiName = doc.Info.Title
	}

	if len(doc.Servers) == 0 || doc.Servers[0].URL == "" {
		return nil, &ValidationError{
			Flavor: FlavorOpenAPI3,
			Anchor: "servers",
			Hint:   "Add a servers block, e.g. servers: [{url: https://api.example.com}]",
		}
	}
	baseURL := strings.TrimSuffix(doc.Servers[0].URL, "/")

	b := &restBuild{set: newModelSet(), auth: tool.AuthNone}
	if doc.Components != nil && doc.Components.SecuritySchemes != nil {
		for pair := doc.Components.SecuritySchemes.First(); pair != nil; pair = pair.Next() {
			name := pair.Key()
			scheme := pair.Value()
			if scheme.Type == "http" && scheme.Scheme == "bearer" {
				b.auth = tool.AuthBearer
				b.authEnvVar = envName(name) + "_TOKEN"
				break
			}
			if scheme.Type == "apiKey" && scheme.In == "header" {
				b.auth = tool.AuthAPIKeyHeader
				header := scheme.Name
				if header == "" {
					header = name
				}
				b.authEnvVar = envName(header)
				break
			}
		}
	}

	var tools []tool.Tool
	if doc.Paths != nil {
		for pair := doc.Paths.PathItems.First(); pair != nil; pair = pair.Next() {
			path := pair.Key()
			item := pair.Value()
			operations := []struct {
				method string
				op     *v3.Operation
			}{
				{"GET", item.Get},
				{"POST", item.Post},
				{"PUT", item.Put},
				{"DELETE", item.Delete},
				{"PATCH", item.Patch},
			}
			for _, entry := range operations {
				if entry.op == nil {
					continue
				}
				tools = append(tools, b.toolFromV3(entry.method, path, baseURL, entry.op))
			}
		}
	}
	if len(tools) == 0 {
		return nil, &ValidationError{
			Flavor: FlavorOpenAPI3,
			Anchor: "paths",
			Hint:   "The description declares no GET/POST/PUT/DELETE/PATCH operations",
		}
	}

	return &Result{APIName: apiName, Flavor: FlavorOpenAPI3, Tools: tools, Models: b.set.models}, nil
}

func (b *restBuild) toolFromV3(method, path, baseURL string, op *v3.Operation) tool.Tool {
	name := op.OperationId
	if name == "" {
		name = strings.ToLower(method) + "_" + path
	}
	name = tool.SanitizeName(name)

	t := tool.Tool{
		Name:        name,
		URL:         baseURL + path,
		Method:      method,
		Auth:        b.auth,
		AuthEnvVar:  b.authEnvVar,
		Args:        tool.NewFields(),
		Description: operationDescription(op.Summary, op.Description, method, path),
	}

	for _, param := range op.Parameters {
		if param == nil {
			continue
		}
		switch param.In {
		case "path", "query", "header":
		default:
			continue
		}
		ptype := b.typeOf(param.Schema, param.Name, 1)
		required := param.Required != nil && *param.Required
		if param.In != "path" && !required {
			ptype = tool.Optional(ptype)
		}
		t.Args.Set(param.Name, ptype)
	}

	// Every URL placeholder must resolve to an argument, declared or not.
	for _, pp := range tool.PathParams(t.URL) {
		if _, ok := t.Args.Get(pp); !ok {
			t.Args.Set(pp, tool.TypeString)
		}
	}

	if op.RequestBody != nil && op.RequestBody.Content != nil && method != "GET" {
		var media *v3.MediaType
		if jsonMedia, ok := op.RequestBody.Content.Get("application/json"); ok {
			media = jsonMedia
		} else if first := op.RequestBody.Content.First(); first != nil {
			media = first.Value()
		}
		var bodyModel string
		if media != nil {
			bodyModel = b.modelOf(media.Schema, resourceName(name)+"Request", 1)
		}
		if bodyModel == "" {
			placeholder := tool.NewFields()
			placeholder.Set("data", tool.TypeObject)
			bodyModel = b.set.register(camelName(name)+"Request", placeholder)
		}
		t.BodyModel = bodyModel
		t.Args.Set("body", bodyModel)
		t.HasFileFields = b.set.fieldsContain(bodyModel, "file")
	}

	if op.Responses != nil && op.Responses.Codes != nil {
		for _, code := range []string{"200", "201", "202", "204"} {
			resp, ok := op.Responses.Codes.Get(code)
			if !ok || resp == nil || resp.Content == nil {
				continue
			}
			var media *v3.MediaType
			if jsonMedia, found := resp.Content.Get("application/json"); found {
				media = jsonMedia
			} else if first := resp.Content.First(); first != nil {
				media = first.Value()
			}
			if media == nil {
				continue
			}
			if respModel := b.modelOf(media.Schema, resourceName(name)+"Response", 1); respModel != "" {
				t.ResponseModel = respModel
				break
			}
		}
	}

	return t
}

func (p *RESTParser) buildV2(model *libopenapi.DocumentModel[v2.Swagger], opts *Options) (*Result, error) {
	doc := model.Model

	apiName := "API"
	if opts != nil && opts.APIName != "" {
		apiName = opts.APIName
	} else if doc.Info != nil && doc.Info.Title != "" {
		apiName = doc.Info.Title
	}

	if doc.Host == "" {
		return nil, &ValidationError{
			Flavor: FlavorSwagger2,
			Anchor: "host",
			Hint:   "Add a host, e.g. host: api.example.com",
		}
	}
	if len(doc.Schemes) == 0 {
		return nil, &ValidationError{
			Flavor: FlavorSwagger2,
			Anchor: "schemes",
			Hint:   "Add schemes, e.g. schemes: [https]",
		}
	}
	if doc.BasePath == "" {
		return nil, &ValidationError{
			Flavor: FlavorSwagger2,
			Anchor: "basePath",
			Hint:   "Add a basePath, e.g. basePath: /v1",
		}
	}
	baseURL := doc.Schemes[0] + "://" + doc.Host + strings.TrimSuffix(doc.BasePath, "/")

	b := &restBuild{set: newModelSet(), auth: tool.AuthNone}
	if doc.SecurityDefinitions != nil && doc.SecurityDefinitions.Definitions != nil {
		for pair := doc.SecurityDefinitions.Definitions.First(); pair != nil; pair = pair.Next() {
			scheme := pair.Value()
			if scheme.Type == "apiKey" && scheme.In == "header" {
				b.auth = tool.AuthAPIKeyHeader
				header := scheme.Name
				if header == "" {
					header = pair.Key()
				}
				b.authEnvVar = envName(header)
				break
			}
		}
	}

	var tools []tool.Tool
	if doc.Paths != nil {
		for pair := doc.Paths.PathItems.First(); pair != nil; pair = pair.Next() {
			path := pair.Key()
			item := pair.Value()
			operations := []struct {
				method string
				op     *v2.Operation
			}{
				{"GET", item.Get},
				{"POST", item.Post},
				{"PUT", item.Put},
				{"DELETE", item.Delete},
				{"PATCH", item.Patch},
			}
			for _, entry := range operations {
				if entry.op == nil {
					continue
				}
				tools = append(tools, b.toolFromV2(entry.method, path, baseURL, entry.op))
			}
		}
	}
	if len(tools) == 0 {
		return nil, &ValidationError{
			Flavor: FlavorSwagger2,
			Anchor: "paths",
			Hint:   "The description declares no GET/POST/PUT/DELETE/PATCH operations",
		}
	}

	return &Result{APIName: apiName, Flavor: FlavorSwagger2, Tools: tools, Models: b.set.models}, nil
}

func (b *restBuild) toolFromV2(method, path, baseURL string, op *v2.Operation) tool.Tool {
	name := op.OperationId
	if name == "" {
		name = strings.ToLower(method) + "_" + path
	}
	name = tool.SanitizeName(name)

	t := tool.Tool{
		Name:        name,
		URL:         baseURL + path,
		Method:      method,
		Auth:        b.auth,
		AuthEnvVar:  b.authEnvVar,
		Args:        tool.NewFields(),
		Description: operationDescription(op.Summary, op.Description, method, path),
	}

	sawPayload := false
	formFields := tool.NewFields()
	for _, param := range op.Parameters {
		if param == nil {
			continue
		}
		required := param.Required != nil && *param.Required
		switch param.In {
		case "path", "query", "header":
			ptype := v2ParamType(param.Type)
			if param.In != "path" && !required {
				ptype = tool.Optional(ptype)
			}
			t.Args.Set(param.Name, ptype)
		case "body":
			// A GET carries no request payload.
			if method == "GET" {
				continue
			}
			sawPayload = true
			if bodyModel := b.modelOf(param.Schema, resourceName(name)+"Request", 1); bodyModel != "" {
				t.BodyModel = bodyModel
			}
		case "formData":
			if method == "GET" {
				continue
			}
			sawPayload = true
			ptype := v2ParamType(param.Type)
			if param.Type == "file" {
				t.HasFileFields = true
			}
			if !required {
				ptype = tool.Optional(ptype)
			}
			formFields.Set(param.Name, ptype)
		}
	}

	if t.BodyModel == "" && formFields.Len() > 0 {
		t.BodyModel = b.set.register(resourceName(name)+"Request", formFields)
	}
	// A declared payload whose schema carried no usable structure still gets a
	// placeholder model; operations that declared none get no body at all.
	if t.BodyModel == "" && sawPayload {
		placeholder := tool.NewFields()
		placeholder.Set("data", tool.TypeObject)
		t.BodyModel = b.set.register(camelName(name)+"Request", placeholder)
	}
	if t.BodyModel != "" {
		t.Args.Set("body", t.BodyModel)
		if !t.HasFileFields {
			t.HasFileFields = b.set.fieldsContain(t.BodyModel, "file")
		}
	}

	for _, pp := range tool.PathParams(t.URL) {
		if _, ok := t.Args.Get(pp); !ok {
			t.Args.Set(pp, tool.TypeString)
		}
	}

	if op.Responses != nil && op.Responses.Codes != nil {
		for _, code := range []string{"200", "201", "202", "204"} {
			resp, ok := op.Responses.Codes.Get(code)
			if !ok || resp == nil || resp.Schema == nil {
				continue
			}
			if respModel := b.modelOf(resp.Schema, resourceName(name)+"Response", 1); respModel != "" {
				t.ResponseModel = respModel
				break
			}
		}
	}

	return t
}

// typeOf maps a schema proxy to a normalized type string. hint names the
// field or parameter the schema belongs to; it seeds model names for inline
// objects. Unresolvable references degrade to the reference tail, and
// recursion past maxSchemaDepth collapses to the generic object type.
func (b *restBuild) typeOf(proxy *base.SchemaProxy, hint string, depth int) string {
	if proxy == nil {
		return tool.TypeString
	}
	if depth >= maxSchemaDepth {
		return tool.TypeObject
	}

	if proxy.IsReference() {
		hint = refTail(proxy.GetReference())
	}
	schema := proxy.Schema()
	if schema == nil {
		if ref := proxy.GetReference(); ref != "" {
			return refTail(ref)
		}
		return tool.TypeObject
	}

	schemaType := ""
	if len(schema.Type) > 0 {
		schemaType = schema.Type[0]
	}

	var mapped string
	switch schemaType {
	case "array":
		elem := tool.TypeObject
		if schema.Items != nil && schema.Items.IsA() {
			elem = b.typeOf(schema.Items.A, hint, depth+1)
		}
		mapped = tool.List(elem)
	case "object":
		mapped = b.objectType(schema, hint, depth)
	case "":
		// An untyped schema with properties is an object in all but name;
		// without properties it stays the generic object type.
		if schema.Properties != nil && schema.Properties.Len() > 0 {
			mapped = b.objectType(schema, hint, depth)
		} else {
			mapped = tool.TypeObject
		}
	default:
		mapped = scalarType(schemaType)
	}

	if schema.Nullable != nil && *schema.Nullable {
		mapped = tool.Optional(mapped)
	}
	return mapped
}

// objectType registers a model for a structured object schema, or returns
// the generic object type when the schema has no properties.
func (b *restBuild) objectType(schema *base.Schema, hint string, depth int) string {
	fields := b.fieldsOf(schema, depth)
	if fields.Len() == 0 {
		return tool.TypeObject
	}
	return b.set.register(capitalize(hint), fields)
}

// fieldsOf extracts the property mapping of an object schema, preserving
// property order. Properties absent from the required list are optional.
func (b *restBuild) fieldsOf(schema *base.Schema, depth int) tool.Fields {
	fields := tool.NewFields()
	if schema.Properties == nil {
		return fields
	}

	requiredSet := make(map[string]bool, len(schema.Required))
	for _, r := range schema.Required {
		requiredSet[r] = true
	}

	for pair := schema.Properties.First(); pair != nil; pair = pair.Next() {
		propName := pair.Key()
		ftype := b.typeOf(pair.Value(), propName, depth+1)
		if !requiredSet[propName] {
			ftype = tool.Optional(ftype)
		}
		fields.Set(propName, ftype)
	}
	return fields
}

// modelOf resolves a body or response schema into a registered model name.
// It returns empty when the schema carries no usable structure, letting the
// caller decide between a placeholder model and no model at all. An array
// response unwraps to its element model.
func (b *restBuild) modelOf(proxy *base.SchemaProxy, baseName string, depth int) string {
	if proxy == nil || depth >= maxSchemaDepth {
		return ""
	}
	if proxy.IsReference() {
		baseName = refTail(proxy.GetReference())
	}
	schema := proxy.Schema()
	if schema == nil {
		return ""
	}

	if len(schema.Type) > 0 && schema.Type[0] == "array" {
		if schema.Items != nil && schema.Items.IsA() {
			return b.modelOf(schema.Items.A, baseName, depth+1)
		}
		return ""
	}

	fields := b.fieldsOf(schema, depth)
	if fields.Len() == 0 {
		return ""
	}
	return b.set.register(baseName, fields)
}

// v2ParamType maps a Swagger 2.0 parameter type keyword.
func v2ParamType(t string) string {
	switch t {
	case "integer":
		return tool.TypeInt
	case "number":
		return tool.TypeFloat
	case "boolean":
		return tool.TypeBool
	case "array":
		return tool.List(tool.TypeString)
	case "file":
		return tool.TypeString
	}
	return tool.TypeString
}

func operationDescription(summary, description, method, path string) string {
	if summary != "" {
		return summary
	}
	if description != "" {
		return description
	}
	return method + " " + path
}

// envName normalizes a security scheme or header name into an environment
// variable name.
func envName(s string) string {
	s = strings.ToUpper(s)
	var sb strings.Builder
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}

// camelName converts an underscore name to CamelCase for placeholder model
// names.
func camelName(s string) string {
	parts := strings.Split(s, "_")
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(capitalize(p))
	}
	return sb.String()
}
