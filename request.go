package req

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// UserAgent is sent when a task does not set its own User-Agent header.
const UserAgent = "req/" + Version

// Header is one header line. Repeated names are kept as separate entries.
type Header struct {
	Name  string
	Value string
}

// ProxyEntry is one proxy rule. An empty Scheme applies to every request.
type ProxyEntry struct {
	Scheme   string
	URL      string
	Username string
	Password string
}

// RequestParameters is a fully assembled request, ready to be sent or exported.
type RequestParameters struct {
	Method      Method
	URL         string
	Headers     []Header
	Body        []byte
	ContentType string
	Insecure    bool
	Redirect    int
	Proxies     []ProxyEntry
}

// Header returns the first value of the named header, case-insensitively.
func (p *RequestParameters) Header(name string) (string, bool) {
	for _, h := range p.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// NewHTTPRequest builds an *http.Request carrying the headers in order.
func (p *RequestParameters) NewHTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if len(p.Body) > 0 {
		body = bytes.NewReader(p.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, string(p.Method), p.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	for _, h := range p.Headers {
		httpReq.Header.Add(h.Name, h.Value)
	}
	if host := httpReq.Header.Get("Host"); host != "" {
		httpReq.Host = host
	}
	if httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", UserAgent)
	}
	return httpReq, nil
}

// NewHTTPClient returns an *http.Client honoring the insecure flag, the redirect limit and the
// proxy rules. With no proxy rules the environment proxy settings apply.
func (p *RequestParameters) NewHTTPClient() (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if p.Insecure {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{}
		}
		transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec // opted in by the task
	}
	if len(p.Proxies) > 0 {
		proxy, err := p.proxyFunc()
		if err != nil {
			return nil, err
		}
		transport.Proxy = proxy
	}
	return &http.Client{
		Transport:     transport,
		CheckRedirect: p.CheckRedirect,
	}, nil
}

// CheckRedirect implements the redirect policy: zero keeps the redirect response,
// N follows at most N redirects.
func (p *RequestParameters) CheckRedirect(_ *http.Request, via []*http.Request) error {
	if p.Redirect <= 0 {
		return http.ErrUseLastResponse
	}
	if len(via) > p.Redirect {
		return fmt.Errorf("stopped after %d redirects", p.Redirect)
	}
	return nil
}

func (p *RequestParameters) proxyFunc() (func(*http.Request) (*url.URL, error), error) {
	byScheme := make(map[string]*url.URL, len(p.Proxies))
	var all *url.URL
	for _, entry := range p.Proxies {
		u, err := parseProxyURL(entry)
		if err != nil {
			return nil, err
		}
		if entry.Scheme == "" {
			all = u
			continue
		}
		byScheme[strings.ToLower(entry.Scheme)] = u
	}
	return func(r *http.Request) (*url.URL, error) {
		if all != nil {
			return all, nil
		}
		return byScheme[r.URL.Scheme], nil
	}, nil
}
