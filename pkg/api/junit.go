package api

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Parse the XML data (XUnit/JUnit reports from any test runner)
type TestStatus string

const (
	TestStatusPass    TestStatus = "pass"
	TestStatusFail    TestStatus = "fail"
	TestStatusError   TestStatus = "error"
	TestStatusSkipped TestStatus = "skipped"
)

// Result is the content of a skipped, failure or error element.
type Result struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Text    string `xml:",chardata"`
}

// String returns the message attribute, falling back to the element content.
func (r *Result) String() string {
	if r == nil {
		return ""
	}
	if r.Message != "" {
		return r.Message
	}
	return r.Text
}

type Property struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// TestCase keeps every attribute as raw text, absent and empty values have
// different meanings for the time derivation.
type TestCase struct {
	XMLName   xml.Name `xml:"testcase"`
	Name      string   `xml:"name,attr,omitempty"`
	ID        string   `xml:"id,attr,omitempty"`
	ClassName string   `xml:"classname,attr,omitempty"`
	Time      string   `xml:"time,attr,omitempty"`
	Timestamp string   `xml:"timestamp,attr,omitempty"`
	ItemType  string   `xml:"item_type,attr,omitempty"`
	Skipped   *Result  `xml:"skipped"`
	Failures  []Result `xml:"failure"`
	Errors    []Result `xml:"error"`
	SystemOut []string `xml:"system-out"`
}

// Status returns the outcome of the test case. Skipped wins over failures,
// matching the order used when publishing.
func (tc *TestCase) Status() TestStatus {
	switch {
	case tc.Skipped != nil:
		return TestStatusSkipped
	case len(tc.Failures) > 0:
		return TestStatusFail
	case len(tc.Errors) > 0:
		return TestStatusError
	}
	return TestStatusPass
}

// Messages returns failure and error messages, empty entries dropped.
func (tc *TestCase) Messages() []string {
	msgs := []string{}
	for _, group := range [][]Result{tc.Failures, tc.Errors} {
		for i := range group {
			if m := group[i].String(); m != "" {
				msgs = append(msgs, m)
			}
		}
	}
	return msgs
}

type TestSuite struct {
	XMLName    xml.Name   `xml:"testsuite"`
	Name       string     `xml:"name,attr,omitempty"`
	ID         string     `xml:"id,attr,omitempty"`
	Tests      string     `xml:"tests,attr"`
	Skipped    string     `xml:"skipped,attr,omitempty"`
	Failures   string     `xml:"failures,attr,omitempty"`
	Errors     string     `xml:"errors,attr,omitempty"`
	Time       string     `xml:"time,attr,omitempty"`
	Timestamp  string     `xml:"timestamp,attr,omitempty"`
	Result     string     `xml:"result,attr,omitempty"`
	Properties []Property `xml:"properties>property,omitempty"`
	TestCases  []TestCase `xml:"testcase"`
}

type TestSuites struct {
	XMLName   xml.Name    `xml:"testsuites"`
	Tests     string      `xml:"tests,attr,omitempty"`
	Errors    string      `xml:"errors,attr,omitempty"`
	Failures  string      `xml:"failures,attr,omitempty"`
	Time      string      `xml:"time,attr,omitempty"`
	TestSuite []TestSuite `xml:"testsuite"`
}

// ParseSuites decodes a report whose root is either a single <testsuite> or a
// <testsuites> wrapper, returning the suites in declaration order.
func ParseSuites(r io.Reader) ([]TestSuite, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading XML data: %w", err)
	}
	root, err := rootElement(data)
	if err != nil {
		return nil, err
	}
	switch root {
	case "testsuite":
		ts := TestSuite{}
		if err := xml.Unmarshal(data, &ts); err != nil {
			return nil, fmt.Errorf("error parsing XML data: %w", err)
		}
		return []TestSuite{ts}, nil
	case "testsuites":
		ts := &TestSuites{}
		if err := xml.Unmarshal(data, ts); err != nil {
			return nil, fmt.Errorf("error parsing XML data with testsuites: %w", err)
		}
		return ts.TestSuite, nil
	}
	return nil, fmt.Errorf("unexpected root element <%s>, want <testsuite> or <testsuites>", root)
}

func rootElement(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return "", fmt.Errorf("error parsing XML data: no root element")
		}
		if err != nil {
			return "", fmt.Errorf("error parsing XML data: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

// MarshalSuite renders a suite with the XML header, indented.
func MarshalSuite(ts *TestSuite) ([]byte, error) {
	out, err := xml.MarshalIndent(ts, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

type JUnitCounter struct {
	Total    int
	Skipped  int
	Failures int
	Errors   int
	Pass     int
}

type JUnitXMLParser struct {
	XMLFile  string
	Parsed   []TestSuite
	Counters *JUnitCounter
	Failures []string
	Cases    []*TestCase
}

// NewJUnitXMLParser parses one report and counts the case outcomes across
// all suites in it.
func NewJUnitXMLParser(xmlFile string, r io.Reader) (*JUnitXMLParser, error) {
	p := &JUnitXMLParser{
		XMLFile:  xmlFile,
		Counters: &JUnitCounter{},
		Cases:    []*TestCase{},
	}
	suites, err := ParseSuites(r)
	if err != nil {
		return nil, err
	}
	if len(suites) == 0 {
		log.Warnf("No test suites found in %s", xmlFile)
	}
	p.Parsed = suites
	for s := range p.Parsed {
		for c := range p.Parsed[s].TestCases {
			tc := &p.Parsed[s].TestCases[c]
			p.Counters.Total += 1
			switch tc.Status() {
			case TestStatusSkipped:
				p.Counters.Skipped += 1
			case TestStatusFail:
				p.Counters.Failures += 1
				p.Failures = append(p.Failures, fmt.Sprintf("%q", tc.Name))
			case TestStatusError:
				p.Counters.Errors += 1
				p.Failures = append(p.Failures, fmt.Sprintf("%q", tc.Name))
			}
			p.Cases = append(p.Cases, tc)
		}
	}
	p.Counters.Pass = p.Counters.Total - (p.Counters.Skipped + p.Counters.Failures + p.Counters.Errors)

	return p, nil
}

// SystemOutText joins the non-empty system-out blocks of a case.
func (tc *TestCase) SystemOutText() string {
	parts := []string{}
	for _, s := range tc.SystemOut {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}
