package req

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// buildMultipartBody encodes parts as multipart/form-data in sorted key order and returns the
// payload with its content type. File parts are read from disk.
func buildMultipartBody(parts map[string]MultipartPart) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, name := range sortedKeys(parts) {
		if err := writePartToMultipart(writer, name, parts[name]); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

// writePartToMultipart writes a single part to the multipart writer
func writePartToMultipart(writer *multipart.Writer, name string, part MultipartPart) error {
	switch p := part.(type) {
	case TextPart:
		if err := writeFieldPartToMultipart(writer, name, p.Value); err != nil {
			return fmt.Errorf("failed to write field part %s: %w", name, err)
		}
	case FilePart:
		if err := writeFilePartToMultipart(writer, name, p.Path); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%s: %w", name, ErrMalformedMultipart)
	}
	return nil
}

// writeFilePartToMultipart writes a file part to the multipart writer
func writeFilePartToMultipart(writer *multipart.Writer, name, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to read uploading file %s: %w", filePath, err)
	}
	defer func() { _ = file.Close() }()

	formWriter, err := createFilePart(writer, name, filePath)
	if err != nil {
		return fmt.Errorf("failed to create form field %s: %w", name, err)
	}
	if _, err = io.Copy(formWriter, file); err != nil {
		return fmt.Errorf("failed to read uploading file %s: %w", filePath, err)
	}
	return nil
}

// createFilePart creates a part whose filename and content type come from the path.
func createFilePart(writer *multipart.Writer, name, filePath string) (io.Writer, error) {
	filename := filepath.Base(filePath)
	contentType := mime.TypeByExtension(filepath.Ext(filePath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(name), escapeQuotes(filename)))
	header.Set("Content-Type", contentType)
	return writer.CreatePart(header)
}

// writeFieldPartToMultipart writes a regular form field to the multipart writer
func writeFieldPartToMultipart(writer *multipart.Writer, name, value string) error {
	formWriter, err := writer.CreateFormField(name)
	if err != nil {
		return fmt.Errorf("failed to create form field: %w", err)
	}
	if _, err = formWriter.Write([]byte(value)); err != nil {
		return fmt.Errorf("failed to write field content: %w", err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
