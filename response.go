package req

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/hashicorp/go-multierror"
)

// Response captures the details of an HTTP response received for a task.
type Response struct {
	Task           string             // Name of the task that produced this response
	Request        *RequestParameters // The assembled request that was sent
	Status         string             // e.g., "200 OK"
	StatusCode     int                // e.g., 200
	Proto          string             // e.g., "HTTP/1.1"
	Headers        http.Header
	Body           []byte        // Raw response body
	BodyString     string        // Response body as a string (convenience)
	Duration       time.Duration // Time taken for the request-response cycle
	Size           int64         // Response size in bytes (Content-Length or actual)
	IsTLS          bool          // True if the connection was over TLS
	TLSVersion     string        // e.g., "TLS 1.3" (if IsTLS is true)
	TLSCipherSuite string        // e.g., "TLS_AES_128_GCM_SHA256" (if IsTLS is true)
	Error          error         // Error encountered while reading the response
}

// IsSuccess reports whether the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Select evaluates a JSONPath expression against the JSON body. A single-element result is
// unwrapped; strings are returned as is and other values are re-encoded as JSON.
func (r *Response) Select(expr string) (string, error) {
	var doc any
	if err := json.Unmarshal(r.Body, &doc); err != nil {
		return "", fmt.Errorf("response body is not valid JSON: %w", err)
	}
	val, err := jsonpath.Get(expr, doc)
	if err != nil {
		return "", fmt.Errorf("jsonpath %q: %w", expr, err)
	}
	if arr, ok := val.([]any); ok && len(arr) == 1 {
		val = arr[0]
	}
	switch t := val.(type) {
	case string:
		return t, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	}
	b, err := json.Marshal(val)
	if err != nil {
		return "", fmt.Errorf("jsonpath %q: cannot encode result: %w", expr, err)
	}
	return string(b), nil
}

// populateResponseDetails copies relevant information from an *http.Response and body to our *Response.
func populateResponseDetails(resp *Response, httpResp *http.Response, bodyBytes []byte, bodyReadErr error) {
	if httpResp == nil {
		return
	}

	resp.Status = httpResp.Status
	resp.StatusCode = httpResp.StatusCode
	resp.Proto = httpResp.Proto
	resp.Headers = httpResp.Header
	resp.Size = httpResp.ContentLength

	if bodyReadErr != nil {
		readErrWrapped := fmt.Errorf("failed to read response body: %w", bodyReadErr)
		resp.Error = multierror.Append(resp.Error, readErrWrapped).ErrorOrNil()
	} else {
		resp.Body = bodyBytes
		resp.BodyString = string(bodyBytes)
		if resp.Size == -1 || (resp.Size == 0 && len(bodyBytes) > 0) {
			resp.Size = int64(len(bodyBytes))
		}
	}

	if httpResp.TLS != nil {
		resp.IsTLS = true
		resp.TLSVersion = tlsVersionName(httpResp.TLS.Version)
		resp.TLSCipherSuite = tls.CipherSuiteName(httpResp.TLS.CipherSuite)
	}
}

func tlsVersionName(version uint16) string {
	switch version {
	case tls.VersionTLS10:
		return "TLS 1.0"
	case tls.VersionTLS11:
		return "TLS 1.1"
	case tls.VersionTLS12:
		return "TLS 1.2"
	case tls.VersionTLS13:
		return "TLS 1.3"
	}
	return fmt.Sprintf("TLS unknown (0x%04x)", version)
}
