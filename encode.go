package req

// EncodeTask renders a task back into the generic document tree accepted by DecodeDocument
// under tasks.<name>. Empty sections are omitted.
func EncodeTask(t Task) map[string]any {
	tree := map[string]any{
		string(t.Target.Method): t.Target.URL,
	}
	if t.Description != "" {
		tree[keyDescription] = t.Description
	}
	if len(t.Headers) > 0 {
		tree[keyHeaders] = encodeParams(t.Headers)
	}
	if len(t.Queries) > 0 {
		tree[keyQueries] = encodeParams(t.Queries)
	}
	if body := encodeBodyTree(t.Body); body != nil {
		tree[keyBody] = body
	}
	switch a := t.Auth.(type) {
	case BearerAuth:
		tree[keyAuth] = map[string]any{"bearer": a.Token}
	case BasicAuth:
		tree[keyAuth] = map[string]any{"basic": map[string]any{"username": a.Username, "password": a.Password}}
	}
	if t.Config != nil {
		tree[keyConfig] = encodeConfig(t.Config)
	}
	return tree
}

func encodeParams(params map[string]Param) map[string]any {
	out := make(map[string]any, len(params))
	for k, v := range params {
		if len(v) == 1 {
			out[k] = v[0]
			continue
		}
		values := make([]any, len(v))
		for i, s := range v {
			values[i] = s
		}
		out[k] = values
	}
	return out
}

func encodeBodyTree(body Body) map[string]any {
	switch b := body.(type) {
	case PlainBody:
		return map[string]any{"plain": b.Text}
	case JSONBody:
		return map[string]any{"json": b.Value}
	case FormBody:
		fields := make(map[string]any, len(b.Fields))
		for k, v := range b.Fields {
			fields[k] = v
		}
		return map[string]any{"form": fields}
	case MultipartBody:
		parts := make(map[string]any, len(b.Parts))
		for k, p := range b.Parts {
			switch part := p.(type) {
			case TextPart:
				parts[k] = part.Value
			case FilePart:
				parts[k] = map[string]any{"file": part.Path}
			}
		}
		return map[string]any{"multipart": parts}
	}
	return nil
}

func encodeConfig(cfg *Config) map[string]any {
	out := map[string]any{}
	if cfg.Insecure {
		out[keyInsecure] = true
	}
	if cfg.Redirect > 0 {
		out[keyRedirect] = cfg.Redirect
	}
	if cfg.EnvFile.Path != "" {
		out[keyEnvFile] = cfg.EnvFile.Path
	}
	switch p := cfg.Proxy.(type) {
	case AllProxy:
		out[keyProxy] = encodeProxyURL(p.ProxyURL)
	case SchemeProxy:
		schemes := map[string]any{}
		if p.HTTP != nil {
			schemes["http"] = encodeProxyURL(*p.HTTP)
		}
		if p.HTTPS != nil {
			schemes["https"] = encodeProxyURL(*p.HTTPS)
		}
		out[keyProxy] = schemes
	}
	return out
}

func encodeProxyURL(p ProxyURL) any {
	if p.Username == nil && p.Password == nil {
		return p.URL
	}
	out := map[string]any{"url": p.URL}
	if p.Username != nil {
		out["username"] = *p.Username
	}
	if p.Password != nil {
		out["password"] = *p.Password
	}
	return out
}
