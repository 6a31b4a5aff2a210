package api

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
)

// Parse the XML data (JUnit created by pytest/selenium, maven surefire, go-junit-report, ...)

var (
	// ErrMissingArtifact is returned when the JUnit file does not exist.
	ErrMissingArtifact = errors.New("junit artifact not found")

	// ErrMalformedArtifact is returned when the JUnit file is not valid XML.
	ErrMalformedArtifact = errors.New("junit artifact is malformed")
)

const (
	elementTestSuite = "testsuite"
	elementTestCase  = "testcase"
)

type Property struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// Failure holds the <failure> and <error> elements.
type Failure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Output  string `xml:",chardata"`
}

type SkipMessage struct {
	Message string `xml:"message,attr"`
	Output  string `xml:",chardata"`
}

// TestCase is a single <testcase> record. Nested elements are pointers, the
// presence of the element decides the result, not its content: both
// <failure/> and <failure>boom</failure> mark a failed test.
type TestCase struct {
	Name      string       `xml:"name,attr"`
	ClassName string       `xml:"classname,attr"`
	Time      string       `xml:"time,attr"`
	Failure   *Failure     `xml:"failure"`
	Error     *Failure     `xml:"error"`
	Skipped   *SkipMessage `xml:"skipped"`
	SystemOut string       `xml:"system-out"`
	SystemErr string       `xml:"system-err"`

	// Suite is the name of the closest enclosing <testsuite>, filled by the decoder.
	Suite string `xml:"-"`
}

// Duration returns the parsed time attribute (seconds), zero when missing or invalid.
func (tc *TestCase) Duration() time.Duration {
	secs, err := strconv.ParseFloat(strings.TrimSpace(tc.Time), 64)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}

type TestSuite struct {
	XMLName    xml.Name     `xml:"testsuite"`
	Name       string       `xml:"name,attr"`
	Tests      int          `xml:"tests,attr"`
	Skipped    int          `xml:"skipped,attr"`
	Failures   int          `xml:"failures,attr"`
	Errors     int          `xml:"errors,attr"`
	Time       string       `xml:"time,attr"`
	Timestamp  string       `xml:"timestamp,attr"`
	Properties []Property   `xml:"properties>property"`
	TestCases  []*TestCase  `xml:"testcase"`
	Children   []*TestSuite `xml:"testsuite"`
}

type TestSuites struct {
	XMLName  xml.Name     `xml:"testsuites"`
	Name     string       `xml:"name,attr"`
	Tests    int          `xml:"tests,attr"`
	Disabled int          `xml:"disabled,attr"`
	Errors   int          `xml:"errors,attr"`
	Failures int          `xml:"failures,attr"`
	Time     string       `xml:"time,attr"`
	Suites   []*TestSuite `xml:"testsuite"`
}

// Artifact is the decoded content of a JUnit file: the test case records in
// document order, regardless of how suites are nested.
type Artifact struct {
	Path  string
	Cases []*TestCase
}

// Decode streams the XML document and collects every <testcase> element,
// at any depth, in the order they appear. Only testcase elements are
// counted; suites, properties and any other element are walked through.
func Decode(r io.Reader) (*Artifact, error) {
	a := &Artifact{Cases: []*TestCase{}}
	dec := xml.NewDecoder(r)
	// JUnit files are not always UTF-8 (ISO-8859-1 is common on surefire),
	// the declared encoding is transcoded.
	dec.CharsetReader = charset.NewReaderLabel

	var suites []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedArtifact, "line %d: %v", lineOf(dec), err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case elementTestSuite:
				suites = append(suites, attr(el, "name"))
			case elementTestCase:
				tc := &TestCase{}
				if err := dec.DecodeElement(tc, &el); err != nil {
					return nil, errors.Wrapf(ErrMalformedArtifact, "testcase #%d: %v", len(a.Cases)+1, err)
				}
				if len(suites) > 0 {
					tc.Suite = suites[len(suites)-1]
				}
				a.Cases = append(a.Cases, tc)
			}
		case xml.EndElement:
			if el.Name.Local == elementTestSuite && len(suites) > 0 {
				suites = suites[:len(suites)-1]
			}
		}
	}
	return a, nil
}

// ReadFile opens and decodes the JUnit file. A missing file is reported as
// ErrMissingArtifact.
func ReadFile(xmlFile string) (*Artifact, error) {
	xmlData, err := os.ReadFile(xmlFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(ErrMissingArtifact, xmlFile)
		}
		return nil, errors.Wrapf(err, "error reading XML file %s", xmlFile)
	}
	return decodeBytes(xmlFile, xmlData)
}

func decodeBytes(source string, xmlData []byte) (*Artifact, error) {
	if len(bytes.TrimSpace(xmlData)) == 0 {
		return nil, errors.Wrapf(ErrMalformedArtifact, "%s: empty file", source)
	}
	a, err := Decode(bytes.NewReader(xmlData))
	if err != nil {
		return nil, errors.Wrap(err, source)
	}
	a.Path = source
	return a, nil
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func lineOf(dec *xml.Decoder) int {
	line, _ := dec.InputPos()
	return line
}
