package scheduler

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// cronSchedule is a five-field cron expression: minute, hour, day of month,
// month, day of week. Each field supports "*", "*/step", single values,
// ranges ("a-b"), and comma lists. Day of week accepts both 0 and 7 for
// Sunday. Per the standard rule, when day of month and day of week are both
// restricted a time matches if either of them does.
type cronSchedule struct {
	minute, hour, dom, month, dow map[int]struct{}

	domRestricted, dowRestricted bool
}

type cronField struct {
	name     string
	min, max int
}

var cronFields = []cronField{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day of month", 1, 31},
	{"month", 1, 12},
	{"day of week", 0, 7},
}

func parseCron(spec string) (*cronSchedule, error) {
	parts := strings.Fields(spec)
	if len(parts) != 5 {
		return nil, fmt.Errorf("cron spec %q must have 5 fields, got %d", spec, len(parts))
	}

	sets := make([]map[int]struct{}, 5)
	for i, part := range parts {
		set, err := parseCronField(part, cronFields[i])
		if err != nil {
			return nil, fmt.Errorf("cron spec %q: %w", spec, err)
		}
		sets[i] = set
	}

	// 7 is an alias for Sunday.
	if _, ok := sets[4][7]; ok {
		delete(sets[4], 7)
		sets[4][0] = struct{}{}
	}

	return &cronSchedule{
		minute:        sets[0],
		hour:          sets[1],
		dom:           sets[2],
		month:         sets[3],
		dow:           sets[4],
		domRestricted: parts[2] != "*",
		dowRestricted: parts[4] != "*",
	}, nil
}

func parseCronField(expr string, f cronField) (map[int]struct{}, error) {
	set := make(map[int]struct{})
	for _, part := range strings.Split(expr, ",") {
		lo, hi, step := f.min, f.max, 1

		if i := strings.Index(part, "/"); i >= 0 {
			s, err := strconv.Atoi(part[i+1:])
			if err != nil || s <= 0 {
				return nil, fmt.Errorf("invalid step in %s field %q", f.name, part)
			}
			step = s
			part = part[:i]
		}

		switch {
		case part == "*":
			// full range
		case strings.Contains(part, "-"):
			bounds := strings.SplitN(part, "-", 2)
			a, errA := strconv.Atoi(bounds[0])
			b, errB := strconv.Atoi(bounds[1])
			if errA != nil || errB != nil || a > b {
				return nil, fmt.Errorf("invalid range in %s field %q", f.name, part)
			}
			lo, hi = a, b
		default:
			v, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid value in %s field %q", f.name, part)
			}
			lo, hi = v, v
		}

		if lo < f.min || hi > f.max {
			return nil, fmt.Errorf("%s field %q out of range %d-%d", f.name, part, f.min, f.max)
		}
		for v := lo; v <= hi; v += step {
			set[v] = struct{}{}
		}
	}
	return set, nil
}

func (c *cronSchedule) matches(t time.Time) bool {
	if _, ok := c.minute[t.Minute()]; !ok {
		return false
	}
	if _, ok := c.hour[t.Hour()]; !ok {
		return false
	}
	if _, ok := c.month[int(t.Month())]; !ok {
		return false
	}

	_, domOK := c.dom[t.Day()]
	_, dowOK := c.dow[int(t.Weekday())]
	if c.domRestricted && c.dowRestricted {
		return domOK || dowOK
	}
	return domOK && dowOK
}

// Next scans minute by minute for the next matching instant. The horizon is
// generous enough for any satisfiable five-field expression.
func (c *cronSchedule) Next(after time.Time) time.Time {
	t := after.Truncate(time.Minute).Add(time.Minute)
	limit := after.AddDate(4, 0, 0)
	for t.Before(limit) {
		if c.matches(t) {
			return t
		}
		t = t.Add(time.Minute)
	}
	return time.Time{}
}
