package req

import (
	"encoding/base64"
	"fmt"
)

// Method is an HTTP verb as spelled in a task definition.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodConnect Method = "CONNECT"
	MethodPatch   Method = "PATCH"
	MethodTrace   Method = "TRACE"
)

// Methods lists every method key accepted in a task definition.
var Methods = []Method{
	MethodGet, MethodPost, MethodPut, MethodDelete, MethodHead,
	MethodOptions, MethodConnect, MethodPatch, MethodTrace,
}

// Target pairs the task's method with its URL template.
type Target struct {
	Method Method
	URL    string
}

// Param is a header or query value. A single value is a one-element Param.
type Param []string

// Body is one of EmptyBody, PlainBody, JSONBody, FormBody or MultipartBody.
type Body interface {
	isBody()
}

// EmptyBody sends no payload.
type EmptyBody struct{}

// PlainBody is sent as raw bytes without a forced content type.
type PlainBody struct {
	Text string
}

// JSONBody is a structured value serialized as JSON. Value holds string, number, bool, nil,
// []any and map[string]any nodes.
type JSONBody struct {
	Value any
}

// FormBody is sent as application/x-www-form-urlencoded.
type FormBody struct {
	Fields map[string]string
}

// MultipartBody is sent as multipart/form-data, one part per entry.
type MultipartBody struct {
	Parts map[string]MultipartPart
}

func (EmptyBody) isBody()     {}
func (PlainBody) isBody()     {}
func (JSONBody) isBody()      {}
func (FormBody) isBody()      {}
func (MultipartBody) isBody() {}

// MultipartPart is either a TextPart or a FilePart.
type MultipartPart interface {
	isMultipartPart()
}

// TextPart is a plain form field.
type TextPart struct {
	Value string
}

// FilePart uploads the file found at Path.
type FilePart struct {
	Path string
}

func (TextPart) isMultipartPart() {}
func (FilePart) isMultipartPart() {}

// Auth is either BearerAuth or BasicAuth.
type Auth interface {
	// AuthorizationHeader renders the value of the Authorization header.
	AuthorizationHeader() string
}

// BearerAuth renders as "Bearer <token>".
type BearerAuth struct {
	Token string
}

func (a BearerAuth) AuthorizationHeader() string {
	return "Bearer " + a.Token
}

// BasicAuth renders as "Basic <base64(username:password)>".
type BasicAuth struct {
	Username string
	Password string
}

func (a BasicAuth) AuthorizationHeader() string {
	credentials := fmt.Sprintf("%s:%s", a.Username, a.Password)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}

// ProxyURL is a proxy address with optional credentials.
type ProxyURL struct {
	URL      string
	Username *string
	Password *string
}

// Credentials returns the proxy username and password when both are set.
func (p ProxyURL) Credentials() (username, password string, ok bool) {
	if p.Username == nil || p.Password == nil {
		return "", "", false
	}
	return *p.Username, *p.Password, true
}

// Proxy is either AllProxy or SchemeProxy.
type Proxy interface {
	isProxy()
}

// AllProxy applies one proxy to every scheme.
type AllProxy struct {
	ProxyURL
}

// SchemeProxy configures http and https proxies separately. Either may be nil.
type SchemeProxy struct {
	HTTP  *ProxyURL
	HTTPS *ProxyURL
}

func (AllProxy) isProxy()    {}
func (SchemeProxy) isProxy() {}

// DefaultEnvFile is used when a document sets `env-file = true`.
const DefaultEnvFile = ".env"

// EnvFile names the environment file to load before resolution. Empty means none.
type EnvFile struct {
	Path string
}

// Config holds transport settings. A task-level Config replaces the document default entirely.
type Config struct {
	Insecure bool
	Redirect int
	Proxy    Proxy
	EnvFile  EnvFile
}

// Task is one declarative request definition.
type Task struct {
	Name        string
	Target      Target
	Headers     map[string]Param
	Queries     map[string]Param
	Body        Body
	Description string
	Auth        Auth
	Config      *Config
}

// ResolvedTask is a Task whose strings have all been interpolated. Config is never nil.
type ResolvedTask struct {
	Task
}

// TaskInfo is the listing entry of a task.
type TaskInfo struct {
	Name        string
	Description string
}
