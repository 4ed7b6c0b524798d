package parser

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/karthikpt1/mcpforge/pkg/tool"
)

// WSDLParser handles WSDL 1.1 descriptions of SOAP services.
type WSDLParser struct{}

// WSDL XML types
type wsdlDefinitions struct {
	XMLName   xml.Name       `xml:"definitions"`
	Name      string         `xml:"name,attr"`
	TargetNS  string         `xml:"targetNamespace,attr"`
	Attrs     []xml.Attr     `xml:",any,attr"`
	Types     wsdlTypes      `xml:"types"`
	Messages  []wsdlMessage  `xml:"message"`
	PortTypes []wsdlPortType `xml:"portType"`
	Bindings  []wsdlBinding  `xml:"binding"`
	Services  []wsdlService  `xml:"service"`
}

type wsdlTypes struct {
	Schemas []xsdSchema `xml:"schema"`
}

type xsdSchema struct {
	TargetNS     string           `xml:"targetNamespace,attr"`
	Attrs        []xml.Attr       `xml:",any,attr"`
	Elements     []xsdElement     `xml:"element"`
	ComplexTypes []xsdComplexType `xml:"complexType"`
	SimpleTypes  []xsdSimpleType  `xml:"simpleType"`
}

type xsdElement struct {
	Name        string          `xml:"name,attr"`
	Type        string          `xml:"type,attr"`
	MinOccurs   string          `xml:"minOccurs,attr"`
	MaxOccurs   string          `xml:"maxOccurs,attr"`
	Nillable    string          `xml:"nillable,attr"`
	ComplexType *xsdComplexType `xml:"complexType"`
}

type xsdComplexType struct {
	Name     string       `xml:"name,attr"`
	Sequence *xsdSequence `xml:"sequence"`
	All      *xsdSequence `xml:"all"`
}

type xsdSequence struct {
	Elements []xsdElement `xml:"element"`
}

type xsdSimpleType struct {
	Name        string          `xml:"name,attr"`
	Restriction *xsdRestriction `xml:"restriction"`
}

type xsdRestriction struct {
	Base string `xml:"base,attr"`
}

type wsdlMessage struct {
	Name  string     `xml:"name,attr"`
	Parts []wsdlPart `xml:"part"`
}

type wsdlPart struct {
	Name    string `xml:"name,attr"`
	Element string `xml:"element,attr"`
	Type    string `xml:"type,attr"`
}

type wsdlPortType struct {
	Name       string          `xml:"name,attr"`
	Operations []wsdlOperation `xml:"operation"`
}

type wsdlOperation struct {
	Name          string     `xml:"name,attr"`
	Documentation string     `xml:"documentation"`
	Input         *wsdlParam `xml:"input"`
	Output        *wsdlParam `xml:"output"`
}

type wsdlParam struct {
	Name    string `xml:"name,attr"`
	Message string `xml:"message,attr"`
}

type wsdlBinding struct {
	Name        string          `xml:"name,attr"`
	Type        string          `xml:"type,attr"`
	SoapBinding *soapBinding    `xml:"binding"`
	Operations  []wsdlBindingOp `xml:"operation"`
}

type soapBinding struct {
	Style     string `xml:"style,attr"`
	Transport string `xml:"transport,attr"`
}

type wsdlBindingOp struct {
	Name          string         `xml:"name,attr"`
	SoapOperation *soapOperation `xml:"operation"`
}

type soapOperation struct {
	SoapAction string `xml:"soapAction,attr"`
	Style      string `xml:"style,attr"`
}

type wsdlService struct {
	Name  string     `xml:"name,attr"`
	Ports []wsdlPort `xml:"port"`
}

type wsdlPort struct {
	Name    string       `xml:"name,attr"`
	Binding string       `xml:"binding,attr"`
	Address *soapAddress `xml:"address"`
}

type soapAddress struct {
	Location string `xml:"location,attr"`
}

func (p *WSDLParser) Name() string {
	return "wsdl"
}

func (p *WSDLParser) CanHandle(content []byte) bool {
	return bytes.Contains(content, []byte("schemas.xmlsoap.org/wsdl")) ||
		bytes.Contains(content, []byte("<definitions")) ||
		bytes.Contains(content, []byte("<wsdl:definitions"))
}

func (p *WSDLParser) Parse(content []byte, opts *Options) (*Result, error) {
	content = stripBOM(content)

	var defs wsdlDefinitions
	if err := xml.Unmarshal(content, &defs); err != nil {
		return nil, &FormatError{Flavor: FlavorWSDL11, Detail: "not well-formed XML", Err: err}
	}

	if len(defs.Bindings) == 0 {
		return nil, &ValidationError{
			Flavor: FlavorWSDL11,
			Anchor: "binding",
			Hint:   "A WSDL must declare at least one binding",
		}
	}

	endpoint := ""
	for _, svc := range defs.Services {
		for _, port := range svc.Ports {
			if port.Address != nil && port.Address.Location != "" {
				endpoint = port.Address.Location
				break
			}
		}
		if endpoint != "" {
			break
		}
	}
	if endpoint == "" {
		return nil, &ValidationError{
			Flavor: FlavorWSDL11,
			Anchor: "soap:address",
			Hint:   "No service port declares a soap:address location",
		}
	}

	apiName := defs.Name
	if opts != nil && opts.APIName != "" {
		apiName = opts.APIName
	}
	if apiName == "" && len(defs.Services) > 0 {
		apiName = defs.Services[0].Name
	}
	if apiName == "" {
		apiName = "SOAP Service"
	}

	b := newWSDLBuild(&defs)

	var tools []tool.Tool
	seen := make(map[string]bool)
	for _, binding := range defs.Bindings {
		style := "document"
		if binding.SoapBinding != nil && binding.SoapBinding.Style != "" {
			style = binding.SoapBinding.Style
		}
		for _, bop := range binding.Operations {
			ptOp, ok := b.portOps[bop.Name]
			if !ok {
				return nil, &ValidationError{
					Flavor: FlavorWSDL11,
					Anchor: fmt.Sprintf("portType operation %q", bop.Name),
					Hint:   fmt.Sprintf("Binding %q references an operation no portType declares", binding.Name),
				}
			}

			opStyle := style
			action := ""
			if bop.SoapOperation != nil {
				action = bop.SoapOperation.SoapAction
				if bop.SoapOperation.Style != "" {
					opStyle = bop.SoapOperation.Style
				}
			}

			t := b.toolFromOperation(ptOp, endpoint, action, opStyle, defs.TargetNS)
			if seen[t.Name] {
				continue
			}
			seen[t.Name] = true
			tools = append(tools, t)
		}
	}

	return &Result{APIName: apiName, Flavor: FlavorWSDL11, Tools: tools, Models: b.set.models}, nil
}

// wsdlBuild holds the indexed schema parts of one WSDL parse. All namespace
// declarations are registered up front, before any qualified-name lookup.
type wsdlBuild struct {
	set        *modelSet
	namespaces map[string]string
	elements   map[string]xsdElement
	complex    map[string]xsdComplexType
	simple     map[string]xsdSimpleType
	messages   map[string]wsdlMessage
	portOps    map[string]wsdlOperation
}

func newWSDLBuild(defs *wsdlDefinitions) *wsdlBuild {
	b := &wsdlBuild{
		set:        newModelSet(),
		namespaces: map[string]string{},
		elements:   map[string]xsdElement{},
		complex:    map[string]xsdComplexType{},
		simple:     map[string]xsdSimpleType{},
		messages:   map[string]wsdlMessage{},
		portOps:    map[string]wsdlOperation{},
	}

	registerNamespaces(b.namespaces, defs.Attrs)
	for _, schema := range defs.Types.Schemas {
		registerNamespaces(b.namespaces, schema.Attrs)
	}

	for _, schema := range defs.Types.Schemas {
		for _, elem := range schema.Elements {
			b.elements[elem.Name] = elem
		}
		for _, ct := range schema.ComplexTypes {
			b.complex[ct.Name] = ct
		}
		for _, st := range schema.SimpleTypes {
			b.simple[st.Name] = st
		}
	}
	for _, msg := range defs.Messages {
		b.messages[msg.Name] = msg
	}
	for _, pt := range defs.PortTypes {
		for _, op := range pt.Operations {
			b.portOps[op.Name] = op
		}
	}
	return b
}

func registerNamespaces(dst map[string]string, attrs []xml.Attr) {
	for _, attr := range attrs {
		if attr.Name.Space == "xmlns" {
			dst[attr.Name.Local] = attr.Value
		} else if attr.Name.Space == "" && attr.Name.Local == "xmlns" {
			dst[""] = attr.Value
		}
	}
}

// local resolves a qualified name to its local part. Unregistered prefixes
// degrade to the local part rather than failing the parse.
func (b *wsdlBuild) local(qname string) string {
	if idx := strings.LastIndex(qname, ":"); idx >= 0 {
		return qname[idx+1:]
	}
	return qname
}

const xsdNamespace = "http://www.w3.org/2001/XMLSchema"

// isXSD reports whether a qualified name lives in the XML Schema namespace,
// so built-in scalars never collide with schema types sharing their local
// name.
func (b *wsdlBuild) isXSD(qname string) bool {
	if idx := strings.Index(qname, ":"); idx >= 0 {
		return b.namespaces[qname[:idx]] == xsdNamespace
	}
	return b.namespaces[""] == xsdNamespace
}

func (b *wsdlBuild) toolFromOperation(op wsdlOperation, endpoint, action, style, targetNS string) tool.Tool {
	name := tool.SanitizeName(op.Name)

	desc := op.Documentation
	if desc == "" {
		desc = fmt.Sprintf("Call SOAP operation %s", op.Name)
	}

	t := tool.Tool{
		Name:        name,
		URL:         endpoint,
		Method:      op.Name,
		Auth:        tool.AuthNone,
		Args:        tool.NewFields(),
		Description: strings.TrimSpace(desc),
		SOAP: &tool.SOAPBinding{
			Action:    action,
			Style:     style,
			Namespace: targetNS,
		},
	}

	if op.Input != nil {
		if msg, ok := b.messages[b.local(op.Input.Message)]; ok {
			t.Args, t.BodyModel = b.inputOf(msg)
		}
	}
	if op.Output != nil {
		if msg, ok := b.messages[b.local(op.Output.Message)]; ok {
			t.ResponseModel = b.outputOf(msg, name)
		}
	}
	return t
}

// inputOf resolves an input message into tool arguments. A single
// element-typed part (document style) resolves through the schema into a
// registered model whose fields become the arguments; type-bearing parts
// (rpc style) become arguments directly.
func (b *wsdlBuild) inputOf(msg wsdlMessage) (tool.Fields, string) {
	args := tool.NewFields()

	if len(msg.Parts) == 1 && msg.Parts[0].Element != "" {
		elemName := b.local(msg.Parts[0].Element)
		elem, ok := b.elements[elemName]
		if !ok {
			return args, ""
		}
		fields := b.elementFields(elem, 1)
		if fields.Len() == 0 {
			return args, ""
		}
		for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
			args.Set(pair.Key, pair.Value)
		}
		return args, b.set.register(capitalize(elemName), fields)
	}

	for _, part := range msg.Parts {
		switch {
		case part.Type != "":
			args.Set(part.Name, b.typeRef(part.Type, 1))
		case part.Element != "":
			elemName := b.local(part.Element)
			if elem, ok := b.elements[elemName]; ok {
				fields := b.elementFields(elem, 1)
				if fields.Len() > 0 {
					args.Set(part.Name, b.set.register(capitalize(elemName), fields))
					continue
				}
			}
			args.Set(part.Name, tool.TypeObject)
		}
	}
	return args, ""
}

// outputOf resolves an output message into a response model name, when the
// message carries structure.
func (b *wsdlBuild) outputOf(msg wsdlMessage, toolName string) string {
	if len(msg.Parts) == 0 {
		return ""
	}
	part := msg.Parts[0]
	if part.Element != "" {
		elemName := b.local(part.Element)
		if elem, ok := b.elements[elemName]; ok {
			fields := b.elementFields(elem, 1)
			if fields.Len() > 0 {
				return b.set.register(capitalize(elemName), fields)
			}
		}
		return ""
	}
	if part.Type != "" {
		typeName := b.local(part.Type)
		if ct, ok := b.complex[typeName]; ok && !b.isXSD(part.Type) {
			fields := b.complexFields(ct, 1)
			if fields.Len() > 0 {
				return b.set.register(capitalize(typeName), fields)
			}
		}
	}
	return ""
}

// elementFields resolves a schema element into a field mapping, through its
// inline complex type or a named complex type reference. A scalar-typed
// element yields a single field named after itself.
func (b *wsdlBuild) elementFields(elem xsdElement, depth int) tool.Fields {
	if elem.ComplexType != nil {
		return b.complexFields(*elem.ComplexType, depth)
	}
	if elem.Type != "" {
		if ct, ok := b.complex[b.local(elem.Type)]; ok && !b.isXSD(elem.Type) {
			return b.complexFields(ct, depth)
		}
		fields := tool.NewFields()
		fields.Set(elem.Name, b.typeRef(elem.Type, depth))
		return fields
	}
	return tool.NewFields()
}

// complexFields maps a complex type's sequence (or all group) into fields.
// minOccurs=0 and nillable elements are optional; maxOccurs=unbounded
// elements are lists.
func (b *wsdlBuild) complexFields(ct xsdComplexType, depth int) tool.Fields {
	fields := tool.NewFields()
	if depth >= maxSchemaDepth {
		return fields
	}

	var elements []xsdElement
	if ct.Sequence != nil {
		elements = ct.Sequence.Elements
	} else if ct.All != nil {
		elements = ct.All.Elements
	}

	for _, elem := range elements {
		var ftype string
		switch {
		case elem.ComplexType != nil:
			nested := b.complexFields(*elem.ComplexType, depth+1)
			if nested.Len() > 0 {
				ftype = b.set.register(capitalize(elem.Name), nested)
			} else {
				ftype = tool.TypeObject
			}
		case elem.Type != "":
			ftype = b.typeRef(elem.Type, depth+1)
		default:
			ftype = tool.TypeObject
		}

		if elem.MaxOccurs == "unbounded" {
			ftype = tool.List(ftype)
		}
		if elem.MinOccurs == "0" || elem.Nillable == "true" {
			ftype = tool.Optional(ftype)
		}
		fields.Set(elem.Name, ftype)
	}
	return fields
}

// typeRef maps a qualified type reference: a reference into the XML Schema
// namespace maps directly as a built-in scalar, a named complex type becomes
// a registered model, a simple type resolves through its restriction base,
// anything else maps as an XSD scalar.
func (b *wsdlBuild) typeRef(qname string, depth int) string {
	typeName := b.local(qname)
	if depth >= maxSchemaDepth {
		return tool.TypeObject
	}
	if b.isXSD(qname) {
		return xsdScalar(typeName)
	}
	if ct, ok := b.complex[typeName]; ok {
		fields := b.complexFields(ct, depth)
		if fields.Len() > 0 {
			return b.set.register(capitalize(typeName), fields)
		}
		return tool.TypeObject
	}
	if st, ok := b.simple[typeName]; ok && st.Restriction != nil {
		return xsdScalar(b.local(st.Restriction.Base))
	}
	return xsdScalar(typeName)
}

// xsdScalar maps an XSD built-in type name to the normalized marker.
func xsdScalar(name string) string {
	switch strings.ToLower(name) {
	case "int", "integer", "long", "short", "byte",
		"unsignedint", "unsignedlong", "unsignedshort", "unsignedbyte",
		"nonnegativeinteger", "positiveinteger", "negativeinteger":
		return tool.TypeInt
	case "decimal", "double", "float":
		return tool.TypeFloat
	case "boolean":
		return tool.TypeBool
	case "anytype":
		return tool.TypeObject
	}
	return tool.TypeString
}
