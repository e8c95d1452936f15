package schema

import (
	"time"

	"github.com/google/uuid"
	"github.com/itchyny/timefmt-go"
)

const (
	FormatDate     = "date"
	FormatTime     = "time"
	FormatDateTime = "date-time"
	FormatUUID     = "uuid"
)

var dateTimeLayouts = []string{
	"%Y-%m-%dT%H:%M:%SZ",
	"%Y-%m-%dT%H:%M:%S%z",
}

// DetectFormat sniffs a string for the date/time shapes the normalizer can
// decode structurally. The cheap byte checks keep the timefmt parse off the
// hot path for ordinary strings.
func DetectFormat(s string) string {
	switch {
	case len(s) == 10 && s[4] == '-' && s[7] == '-':
		if _, err := timefmt.Parse(s, "%Y-%m-%d"); err == nil {
			return FormatDate
		}
	case len(s) == 8 && s[2] == ':' && s[5] == ':':
		if _, err := timefmt.Parse(s, "%H:%M:%S"); err == nil {
			return FormatTime
		}
	case len(s) >= 20 && s[4] == '-' && s[10] == 'T':
		for _, layout := range dateTimeLayouts {
			if _, err := timefmt.Parse(s, layout); err == nil {
				return FormatDateTime
			}
		}
	case len(s) == 36 && s[8] == '-' && s[13] == '-':
		if _, err := uuid.Parse(s); err == nil {
			return FormatUUID
		}
	}
	return ""
}

// ParseFormat decodes a string previously classified by DetectFormat.
func ParseFormat(s, format string) (time.Time, error) {
	switch format {
	case FormatDate:
		return timefmt.Parse(s, "%Y-%m-%d")
	case FormatTime:
		return timefmt.Parse(s, "%H:%M:%S")
	case FormatDateTime:
		var firstErr error
		for _, layout := range dateTimeLayouts {
			t, err := timefmt.Parse(s, layout)
			if err == nil {
				return t, nil
			}
			if firstErr == nil {
				firstErr = err
			}
		}
		return time.Time{}, firstErr
	}
	return timefmt.Parse(s, "%Y-%m-%d")
}
