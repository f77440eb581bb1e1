package textdiff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(d FileDiff) []Kind {
	out := make([]Kind, len(d.Lines))
	for i, l := range d.Lines {
		out[i] = l.Kind
	}
	return out
}

func TestDiff_OneLineChange(t *testing.T) {
	a := "import os\n\ndef main():\n    print('hello')\n\nmain()\n"
	b := "import os\n\ndef main():\n    print('goodbye')\n\nmain()\n"

	d := New(Options{Context: -1}).Diff("app/main.py", "BACKUP_a", "BACKUP_b", []byte(a), []byte(b))
	require.True(t, d.Available, d.Reason)

	added, removed := d.Counts()
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)

	require.GreaterOrEqual(t, len(d.Lines), 4)
	assert.Equal(t, Line{Kind: Header, Text: "--- BACKUP_a/app/main.py"}, d.Lines[0])
	assert.Equal(t, Line{Kind: Header, Text: "+++ BACKUP_b/app/main.py"}, d.Lines[1])
	assert.Equal(t, Hunk, d.Lines[2].Kind)

	var gotRemoved, gotAdded string
	for _, l := range d.Lines {
		switch l.Kind {
		case Removed:
			gotRemoved = l.Text
		case Added:
			gotAdded = l.Text
		}
	}
	assert.Equal(t, "    print('hello')", gotRemoved)
	assert.Equal(t, "    print('goodbye')", gotAdded)
}

func TestDiff_Identical(t *testing.T) {
	d := New(Options{}).Diff("a.txt", "x", "y", []byte("same\n"), []byte("same\n"))
	assert.True(t, d.Available)
	assert.Empty(t, d.Lines)
	assert.Empty(t, d.String())
}

func TestDiff_DashedContentIsNotHeader(t *testing.T) {
	a := "-- comment\nSELECT 1;\n"
	b := "SELECT 1;\n++ other\n"

	d := New(Options{}).Diff("q.sql", "x", "y", []byte(a), []byte(b))
	require.True(t, d.Available)

	headers := 0
	for _, l := range d.Lines {
		if l.Kind == Header {
			headers++
		}
	}
	assert.Equal(t, 2, headers)

	added, removed := d.Counts()
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)
	assert.Contains(t, d.String(), "--- comment\n")
}

func TestDiff_ContextLines(t *testing.T) {
	var a, b strings.Builder
	for i := range 20 {
		line := strings.Repeat("x", i+1) + "\n"
		a.WriteString(line)
		if i == 10 {
			b.WriteString("changed\n")
			continue
		}
		b.WriteString(line)
	}

	zero := New(Options{Context: 0}).Diff("f.txt", "a", "b", []byte(a.String()), []byte(b.String()))
	assert.Equal(t, []Kind{Header, Header, Hunk, Removed, Added}, kinds(zero))

	three := New(Options{Context: 3}).Diff("f.txt", "a", "b", []byte(a.String()), []byte(b.String()))
	contexts := 0
	for _, l := range three.Lines {
		if l.Kind == Context {
			contexts++
		}
	}
	assert.Equal(t, 6, contexts)
}

func TestDiff_Unavailable(t *testing.T) {
	d := New(Options{MaxFileSize: 8})

	bin := d.Diff("image.png", "a", "b", []byte{1}, []byte{2})
	assert.False(t, bin.Available)
	assert.Equal(t, "not a text file", bin.Reason)

	big := d.Diff("notes.txt", "a", "b", []byte("0123456789"), []byte("x"))
	assert.False(t, big.Available)
	assert.Contains(t, big.Reason, "too large")
}

func TestIsText(t *testing.T) {
	d := New(Options{ExtraExtensions: []string{"toml", ".PROTO", " "}})

	tests := []struct {
		path string
		want bool
	}{
		{"main.go", true},
		{"dir/README.MD", true},
		{"config.toml", true},
		{"api/service.proto", true},
		{"photo.jpg", false},
		{"Makefile", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, d.IsText(tt.path))
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"plain", []byte("hello\n"), "hello\n"},
		{"utf8 bom", []byte("\xef\xbb\xbfhello"), "hello"},
		{"utf16le bom", []byte{0xff, 0xfe, 'h', 0, 'i', 0}, "hi"},
		{"invalid bytes dropped", []byte("ok\xff\xfeok"), "okok"},
		{"crlf kept", []byte("a\r\nb\r\n"), "a\r\nb\r\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(tt.in))
		})
	}
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"a\n", "b\n"}, splitLines("a\nb\n"))
	assert.Equal(t, []string{"a\n", "b\n" + noNewlineMarker + "\n"}, splitLines("a\nb"))
	assert.Equal(t, []string{"a\r\n", "b\r\n"}, splitLines("a\r\nb\r\n"))
}

func TestDiff_LineEndingOnlyChanges(t *testing.T) {
	tests := []struct {
		name       string
		a, b       string
		wantMarker bool
	}{
		{"newline added at end", "a\nb", "a\nb\n", true},
		{"newline removed at end", "a\nb\n", "a\nb", true},
		{"crlf to lf", "a\r\nb\r\n", "a\nb\n", false},
		{"lf to crlf", "a\nb\n", "a\r\nb\r\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(Options{}).Diff("x.py", "A", "B", []byte(tt.a), []byte(tt.b))
			require.True(t, d.Available, d.Reason)

			added, removed := d.Counts()
			assert.GreaterOrEqual(t, added, 1)
			assert.GreaterOrEqual(t, removed, 1)
			assert.Equal(t, tt.wantMarker, strings.Contains(d.String(), "\\ No newline at end of file\n"))
			assert.NotContains(t, d.String(), "\r")
		})
	}
}

func TestDiff_NoNewlineMarkerPlacement(t *testing.T) {
	d := New(Options{Context: -1}).Diff("x.txt", "A", "B", []byte("a\nb"), []byte("a\nc"))
	require.True(t, d.Available)

	var got []Kind
	for _, l := range d.Lines[2:] {
		got = append(got, l.Kind)
	}
	assert.Equal(t, []Kind{Hunk, Context, Removed, Marker, Added, Marker}, got)
	assert.Equal(t, "b", d.Lines[4].Text)
	assert.Equal(t, noNewlineMarker, d.Lines[5].Raw())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "header", Header.String())
	assert.Equal(t, "hunk", Hunk.String())
	assert.Equal(t, "added", Added.String())
	assert.Equal(t, "removed", Removed.String())
	assert.Equal(t, "context", Context.String())
	assert.Equal(t, "marker", Marker.String())
}
