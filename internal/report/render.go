package report

import (
	"bytes"
	"fmt"
	htemplate "html/template"
	"io/fs"
	"strings"
	ttemplate "text/template"
	"time"

	"github.com/pkg/errors"
)

const (
	// NoDetailsMessage replaces the detail list when the summary has no cases.
	NoDetailsMessage = "No test details available."

	// DefaultSubjectFormat renders "<icon> Build #<n> - <STATUS> - <passed>/<total> Tests Passed".
	DefaultSubjectFormat = `{{.Icon}} Build #{{.Build.BuildNumber}} - {{.Status}} - {{.Passed}}/{{.Total}} Tests Passed`

	TemplateText = "report.txt"
	TemplateHTML = "report.html"
)

// Rendered holds the presentations of one summary.
type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

// View is the data handed to every template. Text and HTML are rendered
// from the same view so both carry the same fields in the same order.
type View struct {
	Build     BuildContext
	Status    string
	Icon      string
	Color     string
	Total     int
	Passed    int
	Failed    int
	Skipped   int
	PassRate  string
	Durations *DurationView
	Cases     []CaseView
	NoDetails string
}

type DurationView struct {
	Total  string
	Mean   string
	Median string
	P90    string
	Max    string
}

type CaseView struct {
	Index    int
	Name     string
	Suite    string
	Outcome  string
	Detail   string
	Duration string
	// Class is a css friendly outcome: passed, failed or skipped.
	Class string
}

// NewView builds the template data for a summary.
func NewView(bc BuildContext, s ReportSummary) View {
	v := View{
		Build:     bc,
		Status:    bc.BuildStatus.String(),
		Icon:      bc.BuildStatus.Icon(),
		Color:     bc.BuildStatus.Color(),
		Total:     s.Total(),
		Passed:    s.Passed(),
		Failed:    s.Failed(),
		Skipped:   s.Skipped(),
		PassRate:  fmt.Sprintf("%.1f%%", s.PassRate()),
		Cases:     make([]CaseView, 0, s.Total()),
		NoDetails: NoDetailsMessage,
	}
	if ds := s.Durations(); ds.Count > 0 {
		v.Durations = &DurationView{
			Total:  ds.Total.String(),
			Mean:   ds.Mean.String(),
			Median: ds.Median.String(),
			P90:    ds.P90.String(),
			Max:    ds.Max.String(),
		}
	}
	for idx, c := range s.cases {
		cv := CaseView{
			Index:   idx + 1,
			Name:    c.Name,
			Suite:   c.Suite,
			Outcome: c.Outcome.String(),
			Detail:  c.Outcome.Detail,
			Class:   strings.ToLower(c.Outcome.String()),
		}
		if c.Duration > 0 {
			cv.Duration = c.Duration.Round(time.Millisecond).String()
		}
		v.Cases = append(v.Cases, cv)
	}
	return v
}

// Renderer renders notifications from the text and html templates found in
// its file system, and the subject from a one line template.
type Renderer struct {
	text    *ttemplate.Template
	html    *htemplate.Template
	subject *ttemplate.Template
}

// NewRenderer parses report.txt and report.html from fsys. An empty
// subjectFormat uses DefaultSubjectFormat.
func NewRenderer(fsys fs.FS, subjectFormat string) (*Renderer, error) {
	if fsys == nil {
		return nil, errors.New("no template file system")
	}
	if strings.TrimSpace(subjectFormat) == "" {
		subjectFormat = DefaultSubjectFormat
	}
	re := &Renderer{}
	var err error

	re.text, err = ttemplate.New(TemplateText).Funcs(ttemplate.FuncMap{
		"indent": indent,
	}).ParseFS(fsys, TemplateText)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse template %s", TemplateText)
	}
	re.html, err = htemplate.New(TemplateHTML).ParseFS(fsys, TemplateHTML)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse template %s", TemplateHTML)
	}
	re.subject, err = ttemplate.New("subject").Option("missingkey=error").Parse(subjectFormat)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse subject format")
	}
	return re, nil
}

// Render produces the subject, text and html bodies. Rendering is a pure
// function of its inputs.
func (re *Renderer) Render(bc BuildContext, s ReportSummary) (*Rendered, error) {
	view := NewView(bc, s)
	out := &Rendered{}

	var buf bytes.Buffer
	if err := re.subject.Execute(&buf, view); err != nil {
		return nil, errors.Wrap(err, "unable to render subject")
	}
	// headers can not carry new lines
	out.Subject = strings.Join(strings.Fields(buf.String()), " ")

	buf.Reset()
	if err := re.text.Execute(&buf, view); err != nil {
		return nil, errors.Wrap(err, "unable to render text report")
	}
	out.Text = buf.String()

	buf.Reset()
	if err := re.html.Execute(&buf, view); err != nil {
		return nil, errors.Wrap(err, "unable to render html report")
	}
	out.HTML = buf.String()

	return out, nil
}

// Subject renders only the subject line.
func (re *Renderer) Subject(bc BuildContext, s ReportSummary) (string, error) {
	var buf bytes.Buffer
	if err := re.subject.Execute(&buf, NewView(bc, s)); err != nil {
		return "", errors.Wrap(err, "unable to render subject")
	}
	return strings.Join(strings.Fields(buf.String()), " "), nil
}

func indent(spaces int, s string) string {
	pad := strings.Repeat(" ", spaces)
	return pad + strings.ReplaceAll(s, "\n", "\n"+pad)
}
