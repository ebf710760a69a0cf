package req

import (
	"fmt"
	"net/url"
	"strings"
)

// appendQueries adds queries to rawURL, keeping any query string already present.
// Keys are emitted in sorted order with one pair per value.
func appendQueries(rawURL string, queries map[string]Param) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if len(queries) == 0 {
		return rawURL, nil
	}

	pairs := make([]string, 0, len(queries))
	if u.RawQuery != "" {
		pairs = append(pairs, u.RawQuery)
	}
	for _, k := range sortedKeys(queries) {
		for _, v := range queries[k] {
			pairs = append(pairs, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}
	u.RawQuery = strings.Join(pairs, "&")
	u.ForceQuery = false
	return u.String(), nil
}

// parseProxyURL validates a proxy address and attaches credentials as user info.
func parseProxyURL(entry ProxyEntry) (*url.URL, error) {
	u, err := url.Parse(entry.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url %q: %w", entry.URL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid proxy url %q: missing scheme or host", entry.URL)
	}
	if entry.Username != "" || entry.Password != "" {
		u.User = url.UserPassword(entry.Username, entry.Password)
	}
	return u, nil
}
