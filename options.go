package req

import (
	"fmt"
	"net/http"
)

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client) error

// WithHTTPClient allows providing a custom http.Client. Its transport is used as is, so the
// insecure and proxy settings of a task do not apply; the redirect policy of the task is
// installed only when the client has none.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithTransportOverride replaces the transport of the per-task HTTP client while keeping the
// task's redirect policy.
func WithTransportOverride(rt http.RoundTripper) ClientOption {
	return func(c *Client) error {
		if rt == nil {
			return fmt.Errorf("transport override cannot be nil")
		}
		c.transport = rt
		return nil
	}
}

// WithDefaultHeader adds a default header to be sent with every request.
func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) error {
		c.DefaultHeaders.Add(key, value)
		return nil
	}
}

// WithDefaultHeaders adds multiple default headers.
func WithDefaultHeaders(headers http.Header) ClientOption {
	return func(c *Client) error {
		for key, values := range headers {
			for _, value := range values {
				c.DefaultHeaders.Add(key, value)
			}
		}
		return nil
	}
}

// WithVars sets programmatic variables for the client instance.
// Programmatic variables have the highest precedence during resolution,
// overriding env file values and the document's own values.
// If called multiple times, the provided vars are merged with existing ones,
// with new values for existing keys overwriting old ones.
func WithVars(vars map[string]any) ClientOption {
	return func(c *Client) error {
		for k, v := range vars {
			if err := c.SetProgrammaticVar(k, v); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithEnvFile loads variables from the given dotenv file instead of the one named by the
// document configuration.
func WithEnvFile(path string) ClientOption {
	return func(c *Client) error {
		c.envFile = path
		return nil
	}
}
