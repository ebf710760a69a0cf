package req

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// StdinPath is the document path that reads from standard input.
const StdinPath = "-"

// Format selects the syntax of a task document.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// ParseFormat maps a user supplied format name to a Format. Empty means "guess from the path".
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return "", nil
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported document format %q", name)
}

// FormatFromPath guesses the document format from the file extension. TOML is the default.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatTOML
}

// LoadDocument reads a .toml or .yaml file and decodes it into a Document.
func LoadDocument(filePath string) (*Document, error) {
	return LoadDocumentFormat(filePath, "")
}

// LoadDocumentFormat is LoadDocument with an explicit format. StdinPath reads from os.Stdin.
func LoadDocumentFormat(filePath string, format Format) (*Document, error) {
	if format == "" {
		format = FormatFromPath(filePath)
	}
	if filePath == StdinPath {
		return parseDocument(os.Stdin, "<stdin>", format)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open document %s: %w", filePath, err)
	}
	defer func() { _ = file.Close() }()

	return parseDocument(file, filePath, format)
}

// ReadDocument decodes a document from r.
func ReadDocument(r io.Reader, format Format) (*Document, error) {
	return parseDocument(r, "", format)
}

func parseDocument(reader io.Reader, filePath string, format Format) (*Document, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading document %s: %w", filePath, err)
	}
	doc, err := ParseDocument(data, format)
	if err != nil {
		if filePath == "" {
			return nil, err
		}
		return nil, fmt.Errorf("malformed document %s: %w", filePath, err)
	}
	slog.Debug("parseDocument: document loaded", "filePath", filePath, "format", format, "tasks", len(doc.Tasks))
	return doc, nil
}

// ParseDocument parses data in the given format and decodes it into a Document.
func ParseDocument(data []byte, format Format) (*Document, error) {
	tree := map[string]any{}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatTOML, "":
		data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
		if err := toml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
	return DecodeDocument(tree)
}
