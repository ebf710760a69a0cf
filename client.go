package req

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
)

// Client is the main struct for running tasks.
// It holds the HTTP client override, default headers,
// programmatic variables and the env file used for resolution.
type Client struct {
	httpClient       *http.Client
	transport        http.RoundTripper
	DefaultHeaders   http.Header
	programmaticVars map[string]string
	envFile          string
}

// NewClient creates a new instance of the client.
func NewClient(options ...ClientOption) (*Client, error) {
	c := &Client{
		DefaultHeaders:   make(http.Header),
		programmaticVars: make(map[string]string),
	}

	for _, option := range options {
		err := option(c)
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

// SetProgrammaticVar sets or updates a single programmatic variable for the client instance.
// Non-string values are formatted with fmt.
func (c *Client) SetProgrammaticVar(key string, value any) error {
	if key == "" {
		return fmt.Errorf("variable name cannot be empty")
	}
	if c.programmaticVars == nil {
		c.programmaticVars = make(map[string]string)
	}
	c.programmaticVars[key] = fmt.Sprintf("%v", value)
	return nil
}

// ExecuteFile loads a task document and executes the named tasks, or every task in name order
// when none is given. Errors of individual tasks are aggregated; the responses of the tasks
// that succeeded are still returned.
func (c *Client) ExecuteFile(ctx context.Context, documentPath string, names ...string) ([]*Response, error) {
	slog.Debug("ExecuteFile: Entered function", "documentPath", documentPath, "names", names)
	doc, err := LoadDocument(documentPath)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		for _, info := range doc.ListTasks() {
			names = append(names, info.Name)
		}
	}

	responses := make([]*Response, 0, len(names))
	var multiErr *multierror.Error
	for i, name := range names {
		resp, execErr := c.Execute(ctx, doc, name)
		if execErr != nil {
			multiErr = multierror.Append(multiErr, fmt.Errorf("task %d (%s) failed: %w", i+1, name, execErr))
		}
		if resp != nil {
			responses = append(responses, resp)
		}
	}
	return responses, multiErr.ErrorOrNil()
}

// Execute resolves the named task of doc and sends it.
func (c *Client) Execute(ctx context.Context, doc *Document, name string) (*Response, error) {
	resolved, err := c.Resolve(doc, name)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, resolved)
}

// Resolve merges the env file and programmatic variables over the document values and
// resolves the named task. Precedence: programmatic vars > env file > document values.
func (c *Client) Resolve(doc *Document, name string) (*ResolvedTask, error) {
	envVars, err := c.loadEnvVars(doc)
	if err != nil {
		return nil, err
	}
	return doc.WithValues(envVars, c.programmaticVars).Resolve(name)
}

// Assemble is the package level Assemble plus the client's default headers. A default header is
// skipped when the task already sets a header with the same name.
func (c *Client) Assemble(rt *ResolvedTask) (*RequestParameters, error) {
	params, err := Assemble(rt)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(c.DefaultHeaders))
	for key := range c.DefaultHeaders {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, exists := params.Header(key); exists {
			continue
		}
		for _, value := range c.DefaultHeaders[key] {
			params.Headers = append(params.Headers, Header{Name: key, Value: value})
		}
	}
	return params, nil
}

// Send assembles a resolved task and performs the HTTP round trip.
func (c *Client) Send(ctx context.Context, rt *ResolvedTask) (*Response, error) {
	params, err := c.Assemble(rt)
	if err != nil {
		return nil, err
	}
	httpClient, err := c.httpClientFor(params)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", rt.Name, err)
	}
	httpReq, err := params.NewHTTPRequest(ctx)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", rt.Name, err)
	}

	clientResponse := &Response{Task: rt.Name, Request: params}
	startTime := time.Now()
	httpResp, err := httpClient.Do(httpReq)
	clientResponse.Duration = time.Since(startTime)
	if err != nil {
		return nil, fmt.Errorf("task %q: http request failed: %w", rt.Name, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	bodyBytes, readErr := io.ReadAll(httpResp.Body)
	populateResponseDetails(clientResponse, httpResp, bodyBytes, readErr)
	slog.Debug("Send: response received", "task", rt.Name, "status", clientResponse.StatusCode,
		"size", clientResponse.Size, "duration", clientResponse.Duration)
	return clientResponse, clientResponse.Error
}

func (c *Client) loadEnvVars(doc *Document) (map[string]string, error) {
	path := c.envFile
	if path == "" {
		var ok bool
		if path, ok = doc.EnvFile(); !ok {
			return nil, nil
		}
	}
	return LoadEnvFile(path)
}

func (c *Client) httpClientFor(params *RequestParameters) (*http.Client, error) {
	if c.httpClient != nil {
		hc := *c.httpClient
		if hc.CheckRedirect == nil {
			hc.CheckRedirect = params.CheckRedirect
		}
		return &hc, nil
	}
	hc, err := params.NewHTTPClient()
	if err != nil {
		return nil, err
	}
	if c.transport != nil {
		hc.Transport = c.transport
	}
	return hc, nil
}

// ParseVar splits a KEY=VALUE assignment as given on the command line.
func ParseVar(s string) (string, string, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", fmt.Errorf("no `=` found in `%s`", s)
	}
	return key, value, nil
}
