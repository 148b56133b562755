package calendar

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v2"

	"attendance-backend/models"
)

// holidayFile is the on-disk layout:
//
//	holidays:
//	  - date: "2025-08-15"
//	    name: Independence Day
type holidayFile struct {
	Holidays []struct {
		Date string `yaml:"date"`
		Name string `yaml:"name"`
	} `yaml:"holidays"`
}

// LoadHolidays reads a YAML holiday calendar from fs. Entries that fail to
// parse are reported together; the well-formed ones are still returned.
func LoadHolidays(fs afero.Fs, path string) ([]models.Holiday, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "read holidays file %s", path)
	}
	var f holidayFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse holidays file %s", path)
	}

	var (
		out  = make([]models.Holiday, 0, len(f.Holidays))
		errs error
	)
	for i, h := range f.Holidays {
		d, err := ParseDate(h.Date)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("holidays[%d]: bad date %q", i, h.Date))
			continue
		}
		out = append(out, models.Holiday{Date: d, Name: strings.TrimSpace(h.Name)})
	}
	return out, errs
}

// ParseHolidayList parses YYYY-MM-DD strings, each optionally followed by
// "=Name" (e.g. from the HOLIDAYS env var).
func ParseHolidayList(dates []string) ([]models.Holiday, error) {
	var (
		out  = make([]models.Holiday, 0, len(dates))
		errs error
	)
	for _, s := range dates {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		raw, name, _ := strings.Cut(s, "=")
		d, err := ParseDate(strings.TrimSpace(raw))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("bad holiday date %q", raw))
			continue
		}
		out = append(out, models.Holiday{Date: d, Name: strings.TrimSpace(name)})
	}
	return out, errs
}
