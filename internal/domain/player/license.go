package player

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// License is the structured form of a raw license description such as
// "A-licens Senior (2024.07.01)" or "48-timmarslicens ()".
type License struct {
	Type      string
	AgeGroup  string
	ValidFrom *time.Time
}

var licenseRe = regexp.MustCompile(`^(?P<type>[A-D]-licens|48-timmarslicens|Paralicens)(?:\s+(?P<age>\S+))?\s*\((?P<date>\d{4}\.\d{2}\.\d{2})?\)$`)

const licenseDateLayout = "2006.01.02"

// ParseLicenseInfo parses the raw license string published alongside a
// player's season registration. The date inside the parentheses is optional,
// as is the age group between the license type and the parentheses.
func ParseLicenseInfo(raw string) (License, error) {
	trimmed := strings.TrimSpace(raw)
	m := licenseRe.FindStringSubmatch(trimmed)
	if m == nil {
		return License{}, fmt.Errorf("unparseable license info %q", raw)
	}

	lic := License{
		Type:     m[licenseRe.SubexpIndex("type")],
		AgeGroup: m[licenseRe.SubexpIndex("age")],
	}
	if date := m[licenseRe.SubexpIndex("date")]; date != "" {
		t, err := time.Parse(licenseDateLayout, date)
		if err != nil {
			return License{}, fmt.Errorf("license date %q: %w", date, err)
		}
		lic.ValidFrom = &t
	}
	return lic, nil
}
