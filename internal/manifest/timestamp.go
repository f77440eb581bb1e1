package manifest

import (
	"time"

	"github.com/KrolPower/LocalVCS/internal/errors"
)

// timeLayout matches the ISO-8601 form with microseconds and offset.
const timeLayout = "2006-01-02T15:04:05.000000-07:00"

// parseLayouts are tried in order. Layouts without a zone are read as local
// time, which is how zone-less ISO-8601 writers record it.
var parseLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02 15:04:05.999999999-07:00", true},
	{"2006-01-02 15:04:05.999999999", false},
}

// FormatTime renders t for the created_at field.
func FormatTime(t time.Time) string {
	return t.Format(timeLayout)
}

// ParseTime parses a created_at value.
func ParseTime(s string) (time.Time, error) {
	for _, l := range parseLayouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, s)
		} else {
			t, err = time.ParseInLocation(l.layout, s, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrapf(errors.ErrParse, "created_at %q is not an ISO-8601 timestamp", s)
}
