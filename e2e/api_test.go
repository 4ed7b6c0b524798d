package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

const petstoreDescription = `{
  "openapi": "3.0.0",
  "info": {"title": "Petstore", "version": "1.0.0"},
  "servers": [{"url": "https://api.petstore.dev/v2"}],
  "paths": {
    "/pets/{petId}": {
      "get": {
        "operationId": "getPet",
        "parameters": [
          {"name": "petId", "in": "path", "required": true, "schema": {"type": "string"}}
        ],
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`

func postJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(getTestURL(path), "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestHealthz(t *testing.T) {
	resp, err := http.Get(getTestURL("/healthz"))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestGenerateAndBrowse(t *testing.T) {
	resp := postJSON(t, "/api/generate", map[string]string{"description": petstoreDescription})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("generate status = %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Server struct {
			Slug      string `json:"slug"`
			APIName   string `json:"api_name"`
			Flavor    string `json:"flavor"`
			ToolCount int    `json:"tool_count"`
		} `json:"server"`
		Artifacts []struct {
			Name    string `json:"name"`
			Content string `json:"content"`
		} `json:"artifacts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}

	if result.Server.APIName != "Petstore" || result.Server.Flavor != "openapi3" {
		t.Errorf("server = %+v", result.Server)
	}
	if result.Server.ToolCount != 1 {
		t.Errorf("tool count = %d", result.Server.ToolCount)
	}
	if len(result.Artifacts) != 6 {
		t.Errorf("artifact count = %d", len(result.Artifacts))
	}

	// The stored record is browseable.
	getResp, err := http.Get(getTestURL("/api/servers/" + result.Server.Slug))
	if err != nil {
		t.Fatal(err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", getResp.StatusCode)
	}

	var record struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(getResp.Body).Decode(&record); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(record.Code, "def getPet(") {
		t.Error("stored code missing tool function")
	}

	// Artifact download.
	artResp, err := http.Get(getTestURL("/api/servers/" + result.Server.Slug + "/artifacts/dockerfile"))
	if err != nil {
		t.Fatal(err)
	}
	defer artResp.Body.Close()
	content, _ := io.ReadAll(artResp.Body)
	if !strings.Contains(string(content), "FROM python:3.11-slim") {
		t.Errorf("dockerfile artifact = %q", content)
	}
}

func TestGenerateSameSourceUpdatesRecord(t *testing.T) {
	first := postJSON(t, "/api/generate", map[string]string{"description": petstoreDescription})
	defer first.Body.Close()
	second := postJSON(t, "/api/generate", map[string]string{"description": petstoreDescription})
	defer second.Body.Close()

	var a, b struct {
		Server struct {
			ID string `json:"id"`
		} `json:"server"`
	}
	json.NewDecoder(first.Body).Decode(&a)
	json.NewDecoder(second.Body).Decode(&b)
	if a.Server.ID != b.Server.ID {
		t.Errorf("same source produced different records: %s vs %s", a.Server.ID, b.Server.ID)
	}
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	resp := postJSON(t, "/api/generate", map[string]string{"description": "not an api description"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func TestDetect(t *testing.T) {
	resp, err := http.Post(getTestURL("/api/detect"), "application/json", strings.NewReader(petstoreDescription))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var result struct {
		Flavor string `json:"flavor"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Flavor != "openapi3" {
		t.Errorf("flavor = %q", result.Flavor)
	}
}
