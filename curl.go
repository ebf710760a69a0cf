package req

import "strings"

const curlBodyBoundary = "REQUEST_BODY"

var curlEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// ToCurl assembles the task and renders it as a shell command for curl.
func ToCurl(rt *ResolvedTask) (string, error) {
	params, err := Assemble(rt)
	if err != nil {
		return "", err
	}
	return params.Curl(), nil
}

// Curl renders the request as a curl command. The body is passed on stdin through a heredoc
// whose delimiter never occurs in the body. Quoting is minimal: single quotes and backslashes
// are escaped, nothing else.
func (p *RequestParameters) Curl() string {
	var b strings.Builder
	b.WriteString("curl")
	if p.Insecure {
		b.WriteString(" -k")
	}
	if p.Redirect > 0 {
		b.WriteString(" -L")
	}
	b.WriteString(" -X " + curlEscaper.Replace(string(p.Method)) + " '" + curlEscaper.Replace(p.URL) + "'")
	for _, h := range p.Headers {
		b.WriteString(" \\\n\t-H '" + curlEscaper.Replace(h.Name+":"+h.Value) + "'")
	}
	if len(p.Body) > 0 {
		body := string(p.Body)
		boundary := curlBodyBoundary
		for strings.Contains(body, boundary) {
			boundary = "__" + boundary + "__"
		}
		b.WriteString(" \\\n\t-d @- << " + boundary + "\n")
		b.WriteString(body)
		b.WriteString("\n" + boundary)
	}
	return b.String()
}
