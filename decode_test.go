package req

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument_FullTask(t *testing.T) {
	// Given
	input := `
[values]
host = "https://example.com"

[config]
insecure = true
env-file = true

[tasks.create]
POST = "${host}/users"
description = "Create a user"

[tasks.create.headers]
Accept = "application/json"
X-Multi = ["a", "b"]

[tasks.create.queries]
dry = "true"

[tasks.create.body.json]
name = "John"
tags = ["x", "y"]
age = 42

[tasks.create.auth]
bearer = "${token}"

[tasks.create.config]
redirect = 3
proxy = { url = "http://proxy:3128", username = "u", password = "p" }
`

	// When
	doc, err := ParseDocument([]byte(input), FormatTOML)

	// Then
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"host": "https://example.com"}, doc.Values)
	require.NotNil(t, doc.Config)
	assert.True(t, doc.Config.Insecure)
	assert.Equal(t, EnvFile{Path: DefaultEnvFile}, doc.Config.EnvFile)

	task, ok := doc.Tasks["create"]
	require.True(t, ok)
	assert.Equal(t, "create", task.Name)
	assert.Equal(t, Target{Method: MethodPost, URL: "${host}/users"}, task.Target)
	assert.Equal(t, "Create a user", task.Description)
	assert.Equal(t, map[string]Param{"Accept": {"application/json"}, "X-Multi": {"a", "b"}}, task.Headers)
	assert.Equal(t, map[string]Param{"dry": {"true"}}, task.Queries)
	assert.Equal(t, BearerAuth{Token: "${token}"}, task.Auth)

	body, ok := task.Body.(JSONBody)
	require.True(t, ok, "expected JSONBody, got %T", task.Body)
	obj, ok := body.Value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "John", obj["name"])
	assert.Equal(t, []any{"x", "y"}, obj["tags"])
	assert.EqualValues(t, 42, obj["age"])

	require.NotNil(t, task.Config)
	assert.Equal(t, 3, task.Config.Redirect)
	assert.False(t, task.Config.Insecure)
	assert.Equal(t, AllProxy{ProxyURL: ProxyURL{URL: "http://proxy:3128", Username: ptr("u"), Password: ptr("p")}}, task.Config.Proxy)
}

func TestParseDocument_YAML(t *testing.T) {
	input := `
values:
  host: https://example.com
tasks:
  ping:
    GET: ${host}/ping
    headers:
      X-Trace: [one, two]
    body:
      json:
        nested:
          ok: true
`
	doc, err := ParseDocument([]byte(input), FormatYAML)
	require.NoError(t, err)

	task := doc.Tasks["ping"]
	assert.Equal(t, Target{Method: MethodGet, URL: "${host}/ping"}, task.Target)
	assert.Equal(t, Param{"one", "two"}, task.Headers["X-Trace"])
	assert.Equal(t, JSONBody{Value: map[string]any{"nested": map[string]any{"ok": true}}}, task.Body)
}

func TestParseDocument_LegacyAliases(t *testing.T) {
	input := `
[variables]
a = "1"

[req.legacy]
GET = "http://localhost/$a"
`
	doc, err := ParseDocument([]byte(input), FormatTOML)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1"}, doc.Values)
	assert.Contains(t, doc.Tasks, "legacy")
}

func TestParseDocument_SingleTaskDocument(t *testing.T) {
	input := `
GET = "http://localhost/health"

[values]
x = "y"
`
	doc, err := ParseDocument([]byte(input), FormatTOML)
	require.NoError(t, err)
	require.Contains(t, doc.Tasks, DefaultTaskName)
	assert.Equal(t, "http://localhost/health", doc.Tasks[DefaultTaskName].Target.URL)
	assert.Equal(t, map[string]string{"x": "y"}, doc.Values)
}

func TestParseDocument_Bodies(t *testing.T) {
	input := `
[tasks.none]
GET = "http://localhost"

[tasks.plain]
POST = "http://localhost"
body.plain = "hello"

[tasks.form]
POST = "http://localhost"
body.form = { a = "1", b = "2" }

[tasks.upload]
POST = "http://localhost"
[tasks.upload.body.multipart]
title = "report"
file = { file = "./report.pdf" }
`
	doc, err := ParseDocument([]byte(input), FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, EmptyBody{}, doc.Tasks["none"].Body)
	assert.Equal(t, PlainBody{Text: "hello"}, doc.Tasks["plain"].Body)
	assert.Equal(t, FormBody{Fields: map[string]string{"a": "1", "b": "2"}}, doc.Tasks["form"].Body)
	assert.Equal(t, MultipartBody{Parts: map[string]MultipartPart{
		"title": TextPart{Value: "report"},
		"file":  FilePart{Path: "./report.pdf"},
	}}, doc.Tasks["upload"].Body)
}

func TestParseDocument_SchemeProxyAndEnvFilePath(t *testing.T) {
	input := `
[tasks.t]
GET = "http://localhost"

[tasks.t.config]
env-file = "./dev.env"

[tasks.t.config.proxy]
http = "http://plain-proxy:8080"
https = { url = "http://secure-proxy:8443", username = "only-user" }
`
	doc, err := ParseDocument([]byte(input), FormatTOML)
	require.NoError(t, err)

	cfg := doc.Tasks["t"].Config
	require.NotNil(t, cfg)
	assert.Equal(t, EnvFile{Path: "./dev.env"}, cfg.EnvFile)
	assert.Equal(t, SchemeProxy{
		HTTP:  &ProxyURL{URL: "http://plain-proxy:8080"},
		HTTPS: &ProxyURL{URL: "http://secure-proxy:8443", Username: ptr("only-user")},
	}, cfg.Proxy)

	_, _, ok := cfg.Proxy.(SchemeProxy).HTTPS.Credentials()
	assert.False(t, ok, "credentials require both username and password")
}

func TestParseDocument_DefinitionErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sentinel error
		text     string
	}{
		{
			name:     "missing method",
			input:    "[tasks.t]\nheaders = { A = \"b\" }\n",
			sentinel: ErrMissingMethod,
			text:     `task "t": missing definition of method and url`,
		},
		{
			name:     "duplicate method",
			input:    "[tasks.t]\nGET = \"http://a\"\nPOST = \"http://b\"\n",
			sentinel: ErrDuplicateMethod,
			text:     "duplicate definition of method and url",
		},
		{
			name:     "body conflict",
			input:    "[tasks.t]\nPOST = \"http://a\"\nbody.plain = \"x\"\nbody.json = { a = 1 }\n",
			sentinel: ErrBodyConflict,
			text:     `task "t": body:`,
		},
		{
			name:     "malformed multipart",
			input:    "[tasks.t]\nPOST = \"http://a\"\nbody.multipart = { f = { path = \"x\" } }\n",
			sentinel: ErrMalformedMultipart,
			text:     `"f"`,
		},
		{
			name:     "multipart entry with extra keys",
			input:    "[tasks.t]\nPOST = \"http://a\"\nbody.multipart = { f = { file = \"x\", name = \"y\" } }\n",
			sentinel: ErrMalformedMultipart,
		},
		{
			name:     "param of wrong type",
			input:    "[tasks.t]\nGET = \"http://a\"\nheaders = { A = 1 }\n",
			sentinel: ErrInvalidField,
			text:     "headers: A:",
		},
		{
			name:     "negative redirect",
			input:    "[tasks.t]\nGET = \"http://a\"\nconfig = { redirect = -1 }\n",
			sentinel: ErrInvalidField,
			text:     "redirect",
		},
		{
			name:     "unknown body kind",
			input:    "[tasks.t]\nPOST = \"http://a\"\nbody.xml = \"<a/>\"\n",
			sentinel: ErrInvalidField,
			text:     `unknown body kind "xml"`,
		},
		{
			name:     "both auth kinds",
			input:    "[tasks.t]\nGET = \"http://a\"\nauth = { bearer = \"x\", basic = { username = \"u\", password = \"p\" } }\n",
			sentinel: ErrInvalidField,
			text:     "auth",
		},
		{
			name:     "tasks and legacy alias together",
			input:    "[tasks.a]\nGET = \"http://a\"\n[req.b]\nGET = \"http://b\"\n",
			sentinel: ErrInvalidField,
			text:     `both "tasks" and "req"`,
		},
		{
			name:     "no tasks",
			input:    "[values]\na = \"b\"\n",
			sentinel: ErrInvalidField,
			text:     "no tasks defined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// When
			doc, err := ParseDocument([]byte(tt.input), FormatTOML)

			// Then
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.True(t, IsDefinitionError(err))
			if tt.text != "" {
				assert.Contains(t, err.Error(), tt.text)
			}
		})
	}
}

func TestParseDocument_AggregatesErrorsOfAllTasks(t *testing.T) {
	input := `
[tasks.a]
headers = { X = "1" }

[tasks.b]
GET = "http://b"
PUT = "http://b"

[tasks.ok]
GET = "http://ok"
`
	_, err := ParseDocument([]byte(input), FormatTOML)

	assertMultierrorContains(t, err, 2, []string{
		`task "a": missing definition of method and url`,
		`task "b": duplicate definition of method and url`,
	})
}

func TestParseDocument_SyntaxError(t *testing.T) {
	_, err := ParseDocument([]byte("[tasks.t\nGET ="), FormatTOML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse TOML")
	assert.False(t, IsDefinitionError(err))
}
