package parser

import (
	"errors"
	"strings"
	"testing"
)

const userServiceWSDL = `<?xml version="1.0" encoding="UTF-8"?>
<definitions name="UserService"
    targetNamespace="http://example.com/users"
    xmlns="http://schemas.xmlsoap.org/wsdl/"
    xmlns:soap="http://schemas.xmlsoap.org/wsdl/soap/"
    xmlns:tns="http://example.com/users"
    xmlns:xsd="http://www.w3.org/2001/XMLSchema">
  <types>
    <xsd:schema targetNamespace="http://example.com/users">
      <xsd:element name="GetUserRequest">
        <xsd:complexType>
          <xsd:sequence>
            <xsd:element name="userId" type="xsd:int"/>
            <xsd:element name="verbose" type="xsd:boolean" minOccurs="0"/>
          </xsd:sequence>
        </xsd:complexType>
      </xsd:element>
      <xsd:element name="GetUserResponse">
        <xsd:complexType>
          <xsd:sequence>
            <xsd:element name="name" type="xsd:string"/>
            <xsd:element name="balance" type="xsd:decimal"/>
            <xsd:element name="roles" type="xsd:string" maxOccurs="unbounded"/>
          </xsd:sequence>
        </xsd:complexType>
      </xsd:element>
    </xsd:schema>
  </types>
  <message name="GetUserIn">
    <part name="parameters" element="tns:GetUserRequest"/>
  </message>
  <message name="GetUserOut">
    <part name="parameters" element="tns:GetUserResponse"/>
  </message>
  <portType name="UserPort">
    <operation name="GetUser">
      <documentation>Fetch a user by id.</documentation>
      <input message="tns:GetUserIn"/>
      <output message="tns:GetUserOut"/>
    </operation>
  </portType>
  <binding name="UserBinding" type="tns:UserPort">
    <soap:binding style="document" transport="http://schemas.xmlsoap.org/soap/http"/>
    <operation name="GetUser">
      <soap:operation soapAction="http://example.com/users/GetUser"/>
    </operation>
  </binding>
  <service name="UserService">
    <port name="UserPortSoap" binding="tns:UserBinding">
      <soap:address location="https://soap.example.com/users"/>
    </port>
  </service>
</definitions>`

func TestParseWSDL(t *testing.T) {
	p := &WSDLParser{}
	result, err := p.Parse([]byte(userServiceWSDL), nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if result.Flavor != FlavorWSDL11 {
		t.Errorf("flavor = %s", result.Flavor)
	}
	if result.APIName != "UserService" {
		t.Errorf("api name = %q", result.APIName)
	}
	if len(result.Tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(result.Tools))
	}

	got := result.Tools[0]
	if got.Name != "GetUser" {
		t.Errorf("name = %q", got.Name)
	}
	if !got.IsSOAP() {
		t.Fatal("tool should be SOAP")
	}
	if got.SOAP.Action != "http://example.com/users/GetUser" {
		t.Errorf("soap action = %q", got.SOAP.Action)
	}
	if got.SOAP.Style != "document" {
		t.Errorf("soap style = %q", got.SOAP.Style)
	}
	if got.SOAP.Namespace != "http://example.com/users" {
		t.Errorf("soap namespace = %q", got.SOAP.Namespace)
	}
	if got.URL != "https://soap.example.com/users" {
		t.Errorf("endpoint = %q", got.URL)
	}
	if got.Description != "Fetch a user by id." {
		t.Errorf("description = %q", got.Description)
	}

	if userID, ok := got.Args.Get("userId"); !ok || userID != "int" {
		t.Errorf("userId arg = %q, %v", userID, ok)
	}
	if verbose, ok := got.Args.Get("verbose"); !ok || verbose != "Optional[bool]" {
		t.Errorf("verbose arg = %q, %v", verbose, ok)
	}

	if got.BodyModel != "GetUserRequest" {
		t.Errorf("body model = %q", got.BodyModel)
	}
	if got.ResponseModel != "GetUserResponse" {
		t.Errorf("response model = %q", got.ResponseModel)
	}

	resp, ok := result.Models["GetUserResponse"]
	if !ok {
		t.Fatal("GetUserResponse model missing")
	}
	if balance, _ := resp.Get("balance"); balance != "float" {
		t.Errorf("balance = %q", balance)
	}
	if roles, _ := resp.Get("roles"); roles != "list[str]" {
		t.Errorf("roles = %q", roles)
	}
}

func TestParseWSDLNoBindings(t *testing.T) {
	doc := `<definitions xmlns="http://schemas.xmlsoap.org/wsdl/" targetNamespace="http://x"/>`
	p := &WSDLParser{}
	_, err := p.Parse([]byte(doc), nil)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Anchor != "binding" {
		t.Errorf("anchor = %q", verr.Anchor)
	}
}

func TestParseWSDLUnknownPortTypeOperation(t *testing.T) {
	doc := strings.Replace(userServiceWSDL,
		`<operation name="GetUser">
      <soap:operation soapAction="http://example.com/users/GetUser"/>
    </operation>`,
		`<operation name="DeleteUser">
      <soap:operation soapAction="http://example.com/users/DeleteUser"/>
    </operation>`, 1)

	p := &WSDLParser{}
	_, err := p.Parse([]byte(doc), nil)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Anchor, "portType operation") {
		t.Errorf("anchor = %q", verr.Anchor)
	}
}

func TestParseWSDLScalarNamespaceResolution(t *testing.T) {
	// The schema declares a complex type named "string". Only the tns-qualified
	// reference resolves to it; the xsd-qualified one stays a built-in scalar.
	doc := `<?xml version="1.0"?>
<definitions name="Fmt"
    targetNamespace="http://example.com/fmt"
    xmlns="http://schemas.xmlsoap.org/wsdl/"
    xmlns:soap="http://schemas.xmlsoap.org/wsdl/soap/"
    xmlns:tns="http://example.com/fmt"
    xmlns:xsd="http://www.w3.org/2001/XMLSchema">
  <types>
    <xsd:schema targetNamespace="http://example.com/fmt">
      <xsd:complexType name="string">
        <xsd:sequence>
          <xsd:element name="value" type="xsd:string"/>
          <xsd:element name="locale" type="xsd:string"/>
        </xsd:sequence>
      </xsd:complexType>
    </xsd:schema>
  </types>
  <message name="FormatIn">
    <part name="raw" type="xsd:string"/>
    <part name="styled" type="tns:string"/>
  </message>
  <message name="FormatOut">
    <part name="result" type="xsd:string"/>
  </message>
  <portType name="FmtPort">
    <operation name="Format">
      <input message="tns:FormatIn"/>
      <output message="tns:FormatOut"/>
    </operation>
  </portType>
  <binding name="FmtBinding" type="tns:FmtPort">
    <soap:binding style="rpc" transport="http://schemas.xmlsoap.org/soap/http"/>
    <operation name="Format">
      <soap:operation soapAction="http://example.com/fmt/Format"/>
    </operation>
  </binding>
  <service name="FmtService">
    <port name="FmtPortSoap" binding="tns:FmtBinding">
      <soap:address location="https://soap.example.com/fmt"/>
    </port>
  </service>
</definitions>`

	p := &WSDLParser{}
	result, err := p.Parse([]byte(doc), nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := result.Tools[0]

	if raw, _ := got.Args.Get("raw"); raw != "str" {
		t.Errorf("xsd-qualified part = %q, want str", raw)
	}
	styled, _ := got.Args.Get("styled")
	if styled != "String" {
		t.Fatalf("tns-qualified part = %q, want String", styled)
	}
	model, ok := result.Models[styled]
	if !ok {
		t.Fatalf("model %q missing", styled)
	}
	if value, _ := model.Get("value"); value != "str" {
		t.Errorf("String.value = %q", value)
	}
	if got.ResponseModel != "" {
		t.Errorf("scalar output got response model %q", got.ResponseModel)
	}
}

func TestParseWSDLMalformed(t *testing.T) {
	p := &WSDLParser{}
	_, err := p.Parse([]byte("<definitions><unclosed"), nil)
	var ferr *FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FormatError, got %v", err)
	}
}

func TestParseWSDLRPCStyle(t *testing.T) {
	doc := `<?xml version="1.0"?>
<definitions name="Calc"
    targetNamespace="http://example.com/calc"
    xmlns="http://schemas.xmlsoap.org/wsdl/"
    xmlns:soap="http://schemas.xmlsoap.org/wsdl/soap/"
    xmlns:tns="http://example.com/calc"
    xmlns:xsd="http://www.w3.org/2001/XMLSchema">
  <message name="AddIn">
    <part name="a" type="xsd:int"/>
    <part name="b" type="xsd:int"/>
  </message>
  <message name="AddOut">
    <part name="result" type="xsd:int"/>
  </message>
  <portType name="CalcPort">
    <operation name="Add">
      <input message="tns:AddIn"/>
      <output message="tns:AddOut"/>
    </operation>
  </portType>
  <binding name="CalcBinding" type="tns:CalcPort">
    <soap:binding style="rpc" transport="http://schemas.xmlsoap.org/soap/http"/>
    <operation name="Add">
      <soap:operation soapAction=""/>
    </operation>
  </binding>
  <service name="CalcService">
    <port name="CalcPortSoap" binding="tns:CalcBinding">
      <soap:address location="https://soap.example.com/calc"/>
    </port>
  </service>
</definitions>`

	p := &WSDLParser{}
	result, err := p.Parse([]byte(doc), nil)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	got := result.Tools[0]
	if got.SOAP == nil || got.SOAP.Style != "rpc" {
		t.Fatalf("expected rpc style tool, got %+v", got.SOAP)
	}
	// Empty soapAction still marks the tool as SOAP.
	if got.SOAP.Action != "" {
		t.Errorf("action = %q", got.SOAP.Action)
	}
	if a, _ := got.Args.Get("a"); a != "int" {
		t.Errorf("a = %q", a)
	}
	if b, _ := got.Args.Get("b"); b != "int" {
		t.Errorf("b = %q", b)
	}
	if got.BodyModel != "" {
		t.Errorf("rpc style should not register a body model, got %q", got.BodyModel)
	}
}
