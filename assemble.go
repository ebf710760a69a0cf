package req

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// Assemble turns a resolved task into RequestParameters. Headers are ordered as: body content
// type, Authorization, then the task headers by sorted name with values in declared order.
func Assemble(rt *ResolvedTask) (*RequestParameters, error) {
	if rt == nil {
		return nil, fmt.Errorf("cannot assemble a nil task")
	}
	cfg := rt.Config
	if cfg == nil {
		cfg = &Config{}
	}

	target, err := appendQueries(rt.Target.URL, rt.Queries)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", rt.Name, err)
	}

	body, contentType, err := encodeBody(rt.Body)
	if err != nil {
		return nil, fmt.Errorf("task %q: %s: %w", rt.Name, keyBody, err)
	}

	params := &RequestParameters{
		Method:      rt.Target.Method,
		URL:         target,
		Body:        body,
		ContentType: contentType,
		Insecure:    cfg.Insecure,
		Redirect:    cfg.Redirect,
		Proxies:     proxyEntries(cfg.Proxy),
	}
	if contentType != "" {
		params.Headers = append(params.Headers, Header{Name: "Content-Type", Value: contentType})
	}
	if rt.Auth != nil {
		params.Headers = append(params.Headers, Header{Name: "Authorization", Value: rt.Auth.AuthorizationHeader()})
	}
	for _, name := range sortedKeys(rt.Headers) {
		for _, v := range rt.Headers[name] {
			params.Headers = append(params.Headers, Header{Name: name, Value: v})
		}
	}

	slog.Debug("Assemble: request assembled", "task", rt.Name, "method", params.Method,
		"url", params.URL, "headers", len(params.Headers), "bodySize", len(params.Body))
	return params, nil
}

func encodeBody(body Body) ([]byte, string, error) {
	switch b := body.(type) {
	case nil, EmptyBody:
		return nil, "", nil
	case PlainBody:
		return []byte(b.Text), "", nil
	case JSONBody:
		data, err := json.Marshal(b.Value)
		if err != nil {
			return nil, "", fmt.Errorf("failed to encode json body: %w", err)
		}
		return data, contentTypeJSON, nil
	case FormBody:
		values := make(url.Values, len(b.Fields))
		for k, v := range b.Fields {
			values.Set(k, v)
		}
		return []byte(values.Encode()), contentTypeForm, nil
	case MultipartBody:
		return buildMultipartBody(b.Parts)
	}
	return nil, "", fmt.Errorf("unsupported body type %T", body)
}

func proxyEntries(proxy Proxy) []ProxyEntry {
	entry := func(scheme string, p ProxyURL) ProxyEntry {
		e := ProxyEntry{Scheme: scheme, URL: p.URL}
		if username, password, ok := p.Credentials(); ok {
			e.Username, e.Password = username, password
		}
		return e
	}
	switch p := proxy.(type) {
	case AllProxy:
		return []ProxyEntry{entry("", p.ProxyURL)}
	case SchemeProxy:
		var entries []ProxyEntry
		if p.HTTP != nil {
			entries = append(entries, entry("http", *p.HTTP))
		}
		if p.HTTPS != nil {
			entries = append(entries, entry("https", *p.HTTPS))
		}
		return entries
	}
	return nil
}
