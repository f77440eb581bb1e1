package frontmatter

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissing is returned by Parse when the document has no front matter.
	ErrMissing = errors.New("missing front matter")

	// ErrUnterminated is returned when the closing delimiter is absent.
	ErrUnterminated = errors.New("unterminated front matter")
)

const delimiter = "---"

// Parse decodes the front matter of r into matter and returns the body
// that follows it. The blank line after the closing delimiter is not part
// of the body.
func Parse[T any](r io.Reader, matter *T) ([]byte, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	first, rest, ok := cutLine(content)
	if !ok || strings.TrimSpace(string(first)) != delimiter {
		return nil, ErrMissing
	}

	var header bytes.Buffer
	for len(rest) > 0 {
		var line []byte
		line, rest, _ = cutLine(rest)
		if strings.TrimSpace(string(line)) == delimiter {
			if err := yaml.Unmarshal(header.Bytes(), matter); err != nil {
				return nil, err
			}
			if blank, after, ok := cutLine(rest); ok && len(bytes.TrimSpace(blank)) == 0 {
				rest = after
			}
			return rest, nil
		}
		header.Write(line)
		header.WriteByte('\n')
	}
	return nil, ErrUnterminated
}

// Format renders matter as a front matter block followed by body. An empty
// body yields just the block.
func Format(matter any, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(matter); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	buf.WriteString(delimiter + "\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			buf.WriteString("\n")
		}
	}
	return buf.Bytes(), nil
}

// cutLine splits off the first line of b, dropping its line ending.
func cutLine(b []byte) (line, rest []byte, ok bool) {
	if len(b) == 0 {
		return nil, nil, false
	}
	line, rest, found := bytes.Cut(b, []byte("\n"))
	if !found {
		rest = nil
	}
	return bytes.TrimSuffix(line, []byte("\r")), rest, true
}
