package req

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Keys of the document tree.
const (
	keyTasks       = "tasks"
	keyTasksLegacy = "req"
	keyValues      = "values"
	keyValuesAlias = "variables"
	keyConfig      = "config"

	keyHeaders     = "headers"
	keyQueries     = "queries"
	keyBody        = "body"
	keyDescription = "description"
	keyAuth        = "auth"

	keyInsecure = "insecure"
	keyRedirect = "redirect"
	keyProxy    = "proxy"
	keyEnvFile  = "env-file"
)

// DefaultTaskName names the only task of a single-task document.
const DefaultTaskName = "default"

// DecodeDocument builds a Document from a generic tree as produced by a TOML or YAML parser.
// Every task is validated; all definition errors found are returned together.
func DecodeDocument(tree map[string]any) (*Document, error) {
	var errs *multierror.Error
	doc := &Document{
		Tasks:  map[string]Task{},
		Values: map[string]string{},
	}

	rawTasks, err := pickAliased(tree, keyTasks, keyTasksLegacy)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	rawValues, err := pickAliased(tree, keyValues, keyValuesAlias)
	if err != nil {
		errs = multierror.Append(errs, err)
	}

	if rawValues != nil {
		values, err := decodeStringMap(rawValues)
		if err != nil {
			errs = multierror.Append(errs, &DefinitionError{Field: keyValues, Err: err})
		} else {
			doc.Values = values
		}
	}

	if rawConfig, ok := tree[keyConfig]; ok {
		cfg, err := decodeConfig(rawConfig)
		if err != nil {
			errs = multierror.Append(errs, &DefinitionError{Field: keyConfig, Err: err})
		} else {
			doc.Config = cfg
		}
	}

	switch {
	case rawTasks != nil:
		tasks, ok := asMap(rawTasks)
		if !ok {
			errs = multierror.Append(errs, &DefinitionError{Field: keyTasks, Err: invalidField("expected a table of tasks")})
			break
		}
		for _, name := range sortedKeys(tasks) {
			task, err := decodeTask(name, tasks[name])
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			doc.Tasks[name] = task
		}
		warnUnknownKeys("", tree, keyTasks, keyTasksLegacy, keyValues, keyValuesAlias, keyConfig)
	case hasMethodKey(tree):
		single := make(map[string]any, len(tree))
		for k, v := range tree {
			if k == keyValues || k == keyValuesAlias || k == keyConfig {
				continue
			}
			single[k] = v
		}
		task, err := decodeTask(DefaultTaskName, single)
		if err != nil {
			errs = multierror.Append(errs, err)
		} else {
			doc.Tasks[DefaultTaskName] = task
		}
	default:
		errs = multierror.Append(errs, &DefinitionError{Field: keyTasks, Err: invalidField("no tasks defined")})
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	slog.Debug("DecodeDocument: document decoded", "tasks", len(doc.Tasks), "values", len(doc.Values))
	return doc, nil
}

// pickAliased returns tree[key] or tree[alias]; setting both is an error.
func pickAliased(tree map[string]any, key, alias string) (any, error) {
	v, hasKey := tree[key]
	a, hasAlias := tree[alias]
	if hasKey && hasAlias {
		return nil, &DefinitionError{Field: key, Err: invalidField("both %q and %q are defined", key, alias)}
	}
	if hasAlias {
		return a, nil
	}
	return v, nil
}

func hasMethodKey(m map[string]any) bool {
	for _, method := range Methods {
		if _, ok := m[string(method)]; ok {
			return true
		}
	}
	return false
}

func decodeTask(name string, raw any) (Task, error) {
	fields, ok := asMap(raw)
	if !ok {
		return Task{}, &DefinitionError{Task: name, Err: invalidField("expected a table")}
	}

	task := Task{Name: name, Body: EmptyBody{}}

	target, err := decodeTarget(fields)
	if err != nil {
		return Task{}, &DefinitionError{Task: name, Err: err}
	}
	task.Target = target

	if task.Headers, err = decodeParams(fields[keyHeaders]); err != nil {
		return Task{}, &DefinitionError{Task: name, Field: keyHeaders, Err: err}
	}
	if task.Queries, err = decodeParams(fields[keyQueries]); err != nil {
		return Task{}, &DefinitionError{Task: name, Field: keyQueries, Err: err}
	}
	if raw, ok := fields[keyBody]; ok {
		if task.Body, err = decodeBody(raw); err != nil {
			return Task{}, &DefinitionError{Task: name, Field: keyBody, Err: err}
		}
	}
	if raw, ok := fields[keyDescription]; ok {
		s, ok := raw.(string)
		if !ok {
			return Task{}, &DefinitionError{Task: name, Field: keyDescription, Err: invalidField("expected a string")}
		}
		task.Description = s
	}
	if raw, ok := fields[keyAuth]; ok {
		if task.Auth, err = decodeAuth(raw); err != nil {
			return Task{}, &DefinitionError{Task: name, Field: keyAuth, Err: err}
		}
	}
	if raw, ok := fields[keyConfig]; ok {
		if task.Config, err = decodeConfig(raw); err != nil {
			return Task{}, &DefinitionError{Task: name, Field: keyConfig, Err: err}
		}
	}

	known := []string{keyHeaders, keyQueries, keyBody, keyDescription, keyAuth, keyConfig}
	for _, m := range Methods {
		known = append(known, string(m))
	}
	warnUnknownKeys(name, fields, known...)
	return task, nil
}

// decodeTarget requires exactly one method key.
func decodeTarget(fields map[string]any) (Target, error) {
	var found []Method
	for _, m := range Methods {
		if _, ok := fields[string(m)]; ok {
			found = append(found, m)
		}
	}
	switch len(found) {
	case 0:
		return Target{}, ErrMissingMethod
	case 1:
	default:
		return Target{}, fmt.Errorf("%w: %s", ErrDuplicateMethod, joinMethods(found))
	}
	url, ok := fields[string(found[0])].(string)
	if !ok {
		return Target{}, invalidField("%s: expected a URL string", found[0])
	}
	return Target{Method: found[0], URL: url}, nil
}

func joinMethods(ms []Method) string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// decodeParams accepts a table whose values are a string or a list of strings.
func decodeParams(raw any) (map[string]Param, error) {
	params := map[string]Param{}
	if raw == nil {
		return params, nil
	}
	m, ok := asMap(raw)
	if !ok {
		return nil, invalidField("expected a table")
	}
	for k, v := range m {
		p, err := decodeParam(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		params[k] = p
	}
	return params, nil
}

func decodeParam(raw any) (Param, error) {
	switch v := raw.(type) {
	case string:
		return Param{v}, nil
	case []any:
		p := make(Param, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, invalidField("list items must be strings, got %T", item)
			}
			p = append(p, s)
		}
		return p, nil
	case []string:
		return append(Param(nil), v...), nil
	}
	return nil, invalidField("expected a string or a list of strings, got %T", raw)
}

// decodeBody requires at most one of plain, json, form and multipart.
func decodeBody(raw any) (Body, error) {
	m, ok := asMap(raw)
	if !ok {
		return nil, invalidField("expected a table")
	}
	var kinds []string
	for _, k := range sortedKeys(m) {
		switch k {
		case "plain", "json", "form", "multipart":
			kinds = append(kinds, k)
		default:
			return nil, invalidField("unknown body kind %q", k)
		}
	}
	if len(kinds) == 0 {
		return EmptyBody{}, nil
	}
	if len(kinds) > 1 {
		return nil, fmt.Errorf("%w: %s", ErrBodyConflict, strings.Join(kinds, ", "))
	}

	v := m[kinds[0]]
	switch kinds[0] {
	case "plain":
		s, ok := v.(string)
		if !ok {
			return nil, invalidField("plain: expected a string")
		}
		return PlainBody{Text: s}, nil
	case "json":
		return JSONBody{Value: normalizeTree(v)}, nil
	case "form":
		fields, err := decodeStringMap(v)
		if err != nil {
			return nil, fmt.Errorf("form: %w", err)
		}
		return FormBody{Fields: fields}, nil
	default:
		return decodeMultipart(v)
	}
}

func decodeMultipart(raw any) (Body, error) {
	m, ok := asMap(raw)
	if !ok {
		return nil, fmt.Errorf("%w: expected a table", ErrMalformedMultipart)
	}
	parts := make(map[string]MultipartPart, len(m))
	for k, v := range m {
		if text, ok := v.(string); ok {
			parts[k] = TextPart{Value: text}
			continue
		}
		obj, ok := asMap(v)
		if !ok || len(obj) != 1 {
			return nil, fmt.Errorf("%w: %q must be a string or {file = \"path\"}", ErrMalformedMultipart, k)
		}
		path, ok := obj["file"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: %q must be a string or {file = \"path\"}", ErrMalformedMultipart, k)
		}
		parts[k] = FilePart{Path: path}
	}
	return MultipartBody{Parts: parts}, nil
}

// decodeAuth requires exactly one of bearer and basic.
func decodeAuth(raw any) (Auth, error) {
	m, ok := asMap(raw)
	if !ok || len(m) != 1 {
		return nil, invalidField("expected exactly one of bearer or basic")
	}
	if v, ok := m["bearer"]; ok {
		token, ok := v.(string)
		if !ok {
			return nil, invalidField("bearer: expected a string")
		}
		return BearerAuth{Token: token}, nil
	}
	v, ok := m["basic"]
	if !ok {
		return nil, invalidField("expected exactly one of bearer or basic")
	}
	creds, ok := asMap(v)
	if !ok {
		return nil, invalidField("basic: expected a table with username and password")
	}
	username, uok := creds["username"].(string)
	password, pok := creds["password"].(string)
	if !uok || !pok {
		return nil, invalidField("basic: username and password must be strings")
	}
	return BasicAuth{Username: username, Password: password}, nil
}

func decodeConfig(raw any) (*Config, error) {
	m, ok := asMap(raw)
	if !ok {
		return nil, invalidField("expected a table")
	}
	cfg := &Config{}
	if v, ok := m[keyInsecure]; ok {
		b, ok := v.(bool)
		if !ok {
			return nil, invalidField("%s: expected a boolean", keyInsecure)
		}
		cfg.Insecure = b
	}
	if v, ok := m[keyRedirect]; ok {
		n, ok := asInt(v)
		if !ok || n < 0 {
			return nil, invalidField("%s: expected a non-negative integer", keyRedirect)
		}
		cfg.Redirect = n
	}
	if v, ok := m[keyEnvFile]; ok {
		switch ev := v.(type) {
		case bool:
			if ev {
				cfg.EnvFile = EnvFile{Path: DefaultEnvFile}
			}
		case string:
			cfg.EnvFile = EnvFile{Path: ev}
		default:
			return nil, invalidField("%s: expected a boolean or a path", keyEnvFile)
		}
	}
	if v, ok := m[keyProxy]; ok {
		p, err := decodeProxy(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", keyProxy, err)
		}
		cfg.Proxy = p
	}
	return cfg, nil
}

// decodeProxy accepts a URL string, a {url, username, password} table, or an {http, https} table.
func decodeProxy(raw any) (Proxy, error) {
	if m, ok := asMap(raw); ok {
		if _, hasURL := m["url"]; !hasURL {
			sp := SchemeProxy{}
			for k, v := range m {
				pu, err := decodeProxyURL(v)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", k, err)
				}
				switch k {
				case "http":
					sp.HTTP = &pu
				case "https":
					sp.HTTPS = &pu
				default:
					return nil, invalidField("unknown proxy scheme %q", k)
				}
			}
			return sp, nil
		}
	}
	pu, err := decodeProxyURL(raw)
	if err != nil {
		return nil, err
	}
	return AllProxy{ProxyURL: pu}, nil
}

func decodeProxyURL(raw any) (ProxyURL, error) {
	if s, ok := raw.(string); ok {
		return ProxyURL{URL: s}, nil
	}
	m, ok := asMap(raw)
	if !ok {
		return ProxyURL{}, invalidField("expected a URL string or a table with url")
	}
	u, ok := m["url"].(string)
	if !ok {
		return ProxyURL{}, invalidField("url: expected a string")
	}
	pu := ProxyURL{URL: u}
	for _, k := range []string{"username", "password"} {
		v, ok := m[k]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return ProxyURL{}, invalidField("%s: expected a string", k)
		}
		if k == "username" {
			pu.Username = &s
		} else {
			pu.Password = &s
		}
	}
	return pu, nil
}

func decodeStringMap(raw any) (map[string]string, error) {
	m, ok := asMap(raw)
	if !ok {
		return nil, invalidField("expected a table of strings")
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		s, ok := v.(string)
		if !ok {
			return nil, invalidField("%s: expected a string, got %T", k, v)
		}
		out[k] = s
	}
	return out, nil
}

// asMap accepts both map[string]any and the map[any]any some YAML documents produce.
func asMap(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	}
	return nil, false
}

func asInt(raw any) (int, bool) {
	switch n := raw.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// normalizeTree converts nested YAML maps to map[string]any so the value marshals as JSON.
func normalizeTree(raw any) any {
	switch v := raw.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = normalizeTree(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = normalizeTree(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeTree(item)
		}
		return out
	}
	return raw
}

func warnUnknownKeys(task string, fields map[string]any, known ...string) {
	allowed := make(map[string]bool, len(known))
	for _, k := range known {
		allowed[k] = true
	}
	var unknown []string
	for k := range fields {
		if !allowed[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return
	}
	sort.Strings(unknown)
	slog.Warn("ignoring unknown keys", "task", task, "keys", unknown)
}
