package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	req "github.com/bmcszk/go-req"
	"github.com/bmcszk/go-req/internal/logger"
)

const noDescription = "<NO DESCRIPTION>"

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

type runner struct {
	opts   options
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (r *runner) run(ctx context.Context) error {
	cleanup, err := logger.Setup(logger.Config{
		Path:   r.opts.logFile,
		Debug:  r.opts.debug,
		Stderr: r.stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer func() { _ = cleanup() }()

	doc, err := r.loadDocument()
	if err != nil {
		return err
	}

	if r.opts.name == "" {
		return r.printTasks(doc)
	}

	client, err := r.newClient()
	if err != nil {
		return err
	}
	resolved, err := client.Resolve(doc, r.opts.name)
	if err != nil {
		return err
	}

	switch {
	case r.opts.dryrun:
		return r.printDryrun(resolved)
	case r.opts.curl:
		return r.printCurl(client, resolved)
	}

	resp, err := client.Send(ctx, resolved)
	if err != nil {
		return fmt.Errorf("fail to send request: %w", err)
	}
	if err := r.writeResponse(resp); err != nil {
		return err
	}
	if !resp.IsSuccess() {
		slog.Info("request finished with unsuccessful status", "task", resolved.Name, "status", resp.StatusCode)
		return errUnsuccessfulStatus
	}
	return nil
}

func (r *runner) loadDocument() (*req.Document, error) {
	format, err := req.ParseFormat(r.opts.format)
	if err != nil {
		return nil, err
	}
	if r.opts.file == req.StdinPath {
		if format == "" {
			format = req.FormatTOML
		}
		doc, err := req.ReadDocument(r.stdin, format)
		if err != nil {
			return nil, fmt.Errorf("malformed file: %s: %w", r.opts.file, err)
		}
		return doc, nil
	}
	return req.LoadDocumentFormat(r.opts.file, format)
}

func (r *runner) newClient() (*req.Client, error) {
	vars := make(map[string]any, len(r.opts.vars))
	for _, kv := range r.opts.vars {
		key, value, err := req.ParseVar(kv)
		if err != nil {
			return nil, fmt.Errorf("invalid value '%s' for '--var <KEY=VALUE>': %w", kv, err)
		}
		vars[key] = value
	}
	clientOpts := []req.ClientOption{req.WithVars(vars)}
	if r.opts.envFile != "" {
		clientOpts = append(clientOpts, req.WithEnvFile(r.opts.envFile))
	}
	return req.NewClient(clientOpts...)
}

func (r *runner) printTasks(doc *req.Document) error {
	for _, info := range doc.ListTasks() {
		desc := info.Description
		if desc == "" {
			desc = noDescription
		}
		if _, err := fmt.Fprintf(r.stdout, "%s\t%s\n", info.Name, desc); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) printDryrun(resolved *req.ResolvedTask) error {
	enc := yaml.NewEncoder(r.stdout)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any{resolved.Name: req.EncodeTask(resolved.Task)}); err != nil {
		return fmt.Errorf("failed to dump task: %w", err)
	}
	return enc.Close()
}

func (r *runner) printCurl(client *req.Client, resolved *req.ResolvedTask) error {
	params, err := client.Assemble(resolved)
	if err != nil {
		return err
	}
	command := params.Curl()
	if _, err := fmt.Fprintln(r.stdout, command); err != nil {
		return err
	}
	if r.opts.copy {
		if err := copyToClipboard(command); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		slog.Info("curl command copied to clipboard", "task", resolved.Name)
	}
	return nil
}

func (r *runner) writeResponse(resp *req.Response) error {
	if r.opts.includeHeader {
		if _, err := io.WriteString(r.stdout, renderHeader(lipgloss.NewRenderer(r.stdout), resp)); err != nil {
			return err
		}
	}

	body := resp.Body
	if r.opts.selectExpr != "" {
		selected, err := resp.Select(r.opts.selectExpr)
		if err != nil {
			return err
		}
		body = []byte(selected + "\n")
	}

	if r.opts.out != "" {
		if err := os.WriteFile(r.opts.out, body, 0o644); err != nil {
			return fmt.Errorf("failed to write output %s: %w", r.opts.out, err)
		}
		return nil
	}
	_, err := r.stdout.Write(body)
	return err
}

// renderHeader renders the status line and the response headers sorted by name,
// followed by an empty line.
func renderHeader(re *lipgloss.Renderer, resp *req.Response) string {
	statusStyle := successStyle(re)
	if !resp.IsSuccess() {
		statusStyle = failureStyle(re)
	}
	var b strings.Builder
	b.WriteString(statusStyle.Render(resp.Proto+" "+resp.Status) + "\n")

	names := make([]string, 0, len(resp.Headers))
	for name := range resp.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, value := range resp.Headers[name] {
			b.WriteString(headerStyle(re).Render(name+": "+value) + "\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}
