package req

import (
	"fmt"
	"log/slog"
)

// Resolve interpolates every user-controlled string of the task with values from ctx and returns
// a new ResolvedTask. The task and ctx are left untouched. A nil task Config resolves to the
// zero Config; Document.Resolve applies the document default before calling this.
func (t Task) Resolve(ctx *Context) (*ResolvedTask, error) {
	wrap := func(field string, err error) error {
		return fmt.Errorf("task %q: %s: %w", t.Name, field, err)
	}

	url, err := ctx.Interpolate(t.Target.URL)
	if err != nil {
		return nil, wrap(string(t.Target.Method), err)
	}
	headers, err := resolveParams(t.Headers, ctx)
	if err != nil {
		return nil, wrap(keyHeaders, err)
	}
	queries, err := resolveParams(t.Queries, ctx)
	if err != nil {
		return nil, wrap(keyQueries, err)
	}
	body, err := resolveBody(t.Body, ctx)
	if err != nil {
		return nil, wrap(keyBody, err)
	}
	auth, err := resolveAuth(t.Auth, ctx)
	if err != nil {
		return nil, wrap(keyAuth, err)
	}
	cfg := &Config{}
	if t.Config != nil {
		if cfg, err = resolveConfig(t.Config, ctx); err != nil {
			return nil, wrap(keyConfig, err)
		}
	}

	slog.Debug("Task.Resolve: task resolved", "task", t.Name, "method", t.Target.Method, "url", url)
	return &ResolvedTask{Task: Task{
		Name:        t.Name,
		Target:      Target{Method: t.Target.Method, URL: url},
		Headers:     headers,
		Queries:     queries,
		Body:        body,
		Description: t.Description,
		Auth:        auth,
		Config:      cfg,
	}}, nil
}

func resolveParams(params map[string]Param, ctx *Context) (map[string]Param, error) {
	out := make(map[string]Param, len(params))
	for _, k := range sortedKeys(params) {
		name, err := ctx.Interpolate(k)
		if err != nil {
			return nil, err
		}
		values := make(Param, len(params[k]))
		for i, v := range params[k] {
			if values[i], err = ctx.Interpolate(v); err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
		}
		out[name] = append(out[name], values...)
	}
	return out, nil
}

func resolveBody(body Body, ctx *Context) (Body, error) {
	switch b := body.(type) {
	case nil, EmptyBody:
		return EmptyBody{}, nil
	case PlainBody:
		text, err := ctx.Interpolate(b.Text)
		if err != nil {
			return nil, err
		}
		return PlainBody{Text: text}, nil
	case JSONBody:
		v, err := resolveJSONValue(b.Value, ctx)
		if err != nil {
			return nil, err
		}
		return JSONBody{Value: v}, nil
	case FormBody:
		fields, err := resolveStringMap(b.Fields, ctx)
		if err != nil {
			return nil, err
		}
		return FormBody{Fields: fields}, nil
	case MultipartBody:
		parts := make(map[string]MultipartPart, len(b.Parts))
		for _, k := range sortedKeys(b.Parts) {
			name, err := ctx.Interpolate(k)
			if err != nil {
				return nil, err
			}
			switch p := b.Parts[k].(type) {
			case TextPart:
				v, err := ctx.Interpolate(p.Value)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", k, err)
				}
				parts[name] = TextPart{Value: v}
			case FilePart:
				path, err := ctx.Interpolate(p.Path)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", k, err)
				}
				parts[name] = FilePart{Path: path}
			default:
				return nil, fmt.Errorf("%s: %w", k, ErrMalformedMultipart)
			}
		}
		return MultipartBody{Parts: parts}, nil
	}
	return nil, fmt.Errorf("unsupported body type %T", body)
}

// resolveJSONValue walks arrays and objects, interpolating object keys and string leaves.
// Numbers, booleans and nil are returned unchanged.
func resolveJSONValue(v any, ctx *Context) (any, error) {
	switch t := v.(type) {
	case string:
		return ctx.Interpolate(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			rv, err := resolveJSONValue(item, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for _, k := range sortedKeys(t) {
			key, err := ctx.Interpolate(k)
			if err != nil {
				return nil, err
			}
			rv, err := resolveJSONValue(t[k], ctx)
			if err != nil {
				return nil, err
			}
			out[key] = rv
		}
		return out, nil
	}
	return v, nil
}

func resolveStringMap(m map[string]string, ctx *Context) (map[string]string, error) {
	out := make(map[string]string, len(m))
	for _, k := range sortedKeys(m) {
		key, err := ctx.Interpolate(k)
		if err != nil {
			return nil, err
		}
		v, err := ctx.Interpolate(m[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		out[key] = v
	}
	return out, nil
}

func resolveAuth(auth Auth, ctx *Context) (Auth, error) {
	switch a := auth.(type) {
	case nil:
		return nil, nil
	case BearerAuth:
		token, err := ctx.Interpolate(a.Token)
		if err != nil {
			return nil, err
		}
		return BearerAuth{Token: token}, nil
	case BasicAuth:
		username, err := ctx.Interpolate(a.Username)
		if err != nil {
			return nil, err
		}
		password, err := ctx.Interpolate(a.Password)
		if err != nil {
			return nil, err
		}
		return BasicAuth{Username: username, Password: password}, nil
	}
	return nil, fmt.Errorf("unsupported auth type %T", auth)
}

func resolveConfig(cfg *Config, ctx *Context) (*Config, error) {
	out := &Config{
		Insecure: cfg.Insecure,
		Redirect: cfg.Redirect,
		EnvFile:  cfg.EnvFile,
	}
	switch p := cfg.Proxy.(type) {
	case nil:
	case AllProxy:
		pu, err := resolveProxyURL(p.ProxyURL, ctx)
		if err != nil {
			return nil, err
		}
		out.Proxy = AllProxy{ProxyURL: pu}
	case SchemeProxy:
		sp := SchemeProxy{}
		if p.HTTP != nil {
			pu, err := resolveProxyURL(*p.HTTP, ctx)
			if err != nil {
				return nil, err
			}
			sp.HTTP = &pu
		}
		if p.HTTPS != nil {
			pu, err := resolveProxyURL(*p.HTTPS, ctx)
			if err != nil {
				return nil, err
			}
			sp.HTTPS = &pu
		}
		out.Proxy = sp
	default:
		return nil, fmt.Errorf("unsupported proxy type %T", cfg.Proxy)
	}
	return out, nil
}

func resolveProxyURL(p ProxyURL, ctx *Context) (ProxyURL, error) {
	url, err := ctx.Interpolate(p.URL)
	if err != nil {
		return ProxyURL{}, err
	}
	out := ProxyURL{URL: url}
	if p.Username != nil {
		u, err := ctx.Interpolate(*p.Username)
		if err != nil {
			return ProxyURL{}, err
		}
		out.Username = &u
	}
	if p.Password != nil {
		pw, err := ctx.Interpolate(*p.Password)
		if err != nil {
			return ProxyURL{}, err
		}
		out.Password = &pw
	}
	return out, nil
}
