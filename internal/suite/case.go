package suite

import (
	"github.com/pkg/errors"

	"github.com/redhat-openshift-ecosystem/ci-reporter/pkg/api"
)

const (
	defaultItemType = "STEP"
	nullName        = "NULL"
)

// Case is a read-only view over one testcase element.
type Case struct {
	raw        *api.TestCase
	durationMs int64
	timestamp  *int64
}

func newCase(raw *api.TestCase) (*Case, error) {
	d, err := ParseDuration(raw.Time)
	if err != nil {
		return nil, errors.Wrapf(err, "testcase %q", raw.Name)
	}
	c := &Case{raw: raw, durationMs: d}
	ts, ok, err := ParseTimestamp(raw.Timestamp)
	if err != nil {
		return nil, errors.Wrapf(err, "testcase %q", raw.Name)
	}
	if ok {
		c.timestamp = &ts
	}
	return c, nil
}

// Raw returns the parsed XML element.
func (c *Case) Raw() *api.TestCase { return c.raw }

// Name is "classname.name", falling back to the id and then to NULL for the
// name part.
func (c *Case) Name() string {
	name := c.raw.Name
	if name == "" {
		name = c.raw.ID
	}
	if name == "" {
		name = nullName
	}
	if c.raw.ClassName == "" {
		return name
	}
	return c.raw.ClassName + "." + name
}

// ItemType is the remote item type declared on the case, STEP by default.
func (c *Case) ItemType() string {
	if c.raw.ItemType != "" {
		return c.raw.ItemType
	}
	return defaultItemType
}

func (c *Case) DurationMs() int64 { return c.durationMs }

// Times derives the case window. Cases without a timestamp end at now.
func (c *Case) Times(now Clock) (start, end int64) {
	return StartEnd(c.durationMs, c.timestamp, now)
}

// TruncateName clips s to at most max characters. A non positive max keeps s.
func TruncateName(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
