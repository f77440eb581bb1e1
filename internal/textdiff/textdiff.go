// Package textdiff produces line-level unified diffs between two versions of
// a text file.
package textdiff

import (
	"path"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/KrolPower/LocalVCS/pkg/fileutil"
)

// DefaultContext is the number of unchanged lines shown around each change.
const DefaultContext = 3

// defaultExtensions lists the file types diffed as text.
var defaultExtensions = []string{
	".txt", ".cs", ".py", ".js", ".html", ".css", ".xml", ".json", ".md", ".log",
	".ini", ".cfg", ".conf", ".yml", ".yaml", ".sql", ".sh", ".bat", ".ps1",
	".java", ".cpp", ".c", ".h", ".hpp", ".php", ".rb", ".go", ".rs", ".swift",
	".kt", ".scala", ".ts", ".tsx", ".jsx", ".vue", ".svelte",
}

// DefaultExtensions returns the built-in text extensions.
func DefaultExtensions() []string {
	out := make([]string, len(defaultExtensions))
	copy(out, defaultExtensions)
	return out
}

// Kind classifies a diff line.
type Kind int

const (
	Header Kind = iota
	Hunk
	Added
	Removed
	Context
	// Marker is the "\ No newline at end of file" note after a line that
	// ends without a newline.
	Marker
)

const noNewlineMarker = "\\ No newline at end of file"

func (k Kind) String() string {
	switch k {
	case Header:
		return "header"
	case Hunk:
		return "hunk"
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Marker:
		return "marker"
	default:
		return "context"
	}
}

// Line is one line of a unified diff. Text excludes the leading marker for
// Added, Removed and Context lines, and any trailing carriage return.
type Line struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Raw returns the line as it appears in unified diff output.
func (l Line) Raw() string {
	switch l.Kind {
	case Added:
		return "+" + l.Text
	case Removed:
		return "-" + l.Text
	case Context:
		return " " + l.Text
	default:
		return l.Text
	}
}

// FileDiff is the diff of one file. When Available is false, Reason says why
// no line diff was produced and Lines is empty.
type FileDiff struct {
	Path      string `json:"path"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
	Lines     []Line `json:"lines,omitempty"`
}

// Unavailable returns a FileDiff that carries only a reason.
func Unavailable(p, reason string) FileDiff {
	return FileDiff{Path: p, Reason: reason}
}

// Counts returns the number of added and removed lines.
func (d FileDiff) Counts() (added, removed int) {
	for _, l := range d.Lines {
		switch l.Kind {
		case Added:
			added++
		case Removed:
			removed++
		}
	}
	return added, removed
}

// String renders the diff in unified format.
func (d FileDiff) String() string {
	var b strings.Builder
	for _, l := range d.Lines {
		b.WriteString(l.Raw())
		b.WriteByte('\n')
	}
	return b.String()
}

// Options configure a Differ.
type Options struct {
	// Context lines around each change. Negative selects DefaultContext.
	Context int

	// MaxFileSize bounds either side of a diff. <= 0 means fileutil.MaxFileSize.
	MaxFileSize int64

	// ExtraExtensions are added to the built-in text extensions.
	ExtraExtensions []string
}

// Differ generates FileDiffs.
type Differ struct {
	context int
	maxSize int64
	exts    map[string]bool
}

// New returns a Differ configured by opts.
func New(opts Options) *Differ {
	d := &Differ{
		context: opts.Context,
		maxSize: opts.MaxFileSize,
		exts:    make(map[string]bool, len(defaultExtensions)+len(opts.ExtraExtensions)),
	}
	if d.context < 0 {
		d.context = DefaultContext
	}
	if d.maxSize <= 0 {
		d.maxSize = fileutil.MaxFileSize
	}
	for _, e := range defaultExtensions {
		d.exts[e] = true
	}
	for _, e := range opts.ExtraExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		d.exts[e] = true
	}
	return d
}

// MaxFileSize is the largest input Diff accepts.
func (d *Differ) MaxFileSize() int64 {
	return d.maxSize
}

// IsText reports whether p has a text extension.
func (d *Differ) IsText(p string) bool {
	return d.exts[strings.ToLower(path.Ext(p))]
}

// Diff compares two versions of the file p. fromLabel and toLabel name the
// two sides in the header lines. Identical content yields an available diff
// with no lines.
func (d *Differ) Diff(p, fromLabel, toLabel string, a, b []byte) FileDiff {
	if !d.IsText(p) {
		return Unavailable(p, "not a text file")
	}
	if int64(len(a)) > d.maxSize || int64(len(b)) > d.maxSize {
		return Unavailable(p, "file too large to diff")
	}

	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(Decode(a)),
		B:        splitLines(Decode(b)),
		FromFile: fromLabel + "/" + p,
		ToFile:   toLabel + "/" + p,
		Context:  d.context,
	})
	if err != nil {
		return Unavailable(p, err.Error())
	}

	return FileDiff{Path: p, Available: true, Lines: parse(out)}
}

// parse classifies unified diff output. File headers only occur before the
// first hunk, so content lines starting with "--" are not mistaken for them.
func parse(out string) []Line {
	raw := strings.Split(out, "\n")
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}

	lines := make([]Line, 0, len(raw))
	inHunk := false
	for _, r := range raw {
		switch {
		case strings.HasPrefix(r, "@@"):
			inHunk = true
			lines = append(lines, Line{Kind: Hunk, Text: r})
		case !inHunk:
			lines = append(lines, Line{Kind: Header, Text: r})
		case r == noNewlineMarker:
			lines = append(lines, Line{Kind: Marker, Text: r})
		case strings.HasPrefix(r, "+"):
			lines = append(lines, Line{Kind: Added, Text: display(r[1:])})
		case strings.HasPrefix(r, "-"):
			lines = append(lines, Line{Kind: Removed, Text: display(r[1:])})
		case strings.HasPrefix(r, " "):
			lines = append(lines, Line{Kind: Context, Text: display(r[1:])})
		default:
			lines = append(lines, Line{Kind: Context, Text: r})
		}
	}
	return lines
}

// display drops the carriage return of a CRLF line.
func display(s string) string {
	return strings.TrimSuffix(s, "\r")
}

// splitLines splits s into lines, keeping their endings. A final line without
// a newline carries the no-newline marker, so it differs from the same line
// terminated.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if last := lines[len(lines)-1]; !strings.HasSuffix(last, "\n") {
		lines[len(lines)-1] = last + "\n" + noNewlineMarker + "\n"
	}
	return lines
}

// Decode converts file content to a string. A UTF-8 or UTF-16 byte order
// mark selects the encoding; otherwise the content is read as UTF-8 and
// invalid bytes are dropped. Line endings are kept.
func Decode(b []byte) string {
	t := transform.Chain(
		unicode.BOMOverride(runes.ReplaceIllFormed()),
		runes.Remove(runes.Predicate(func(r rune) bool { return r == utf8.RuneError })),
	)
	s, _, err := transform.Bytes(t, b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "")
	}
	return string(s)
}
