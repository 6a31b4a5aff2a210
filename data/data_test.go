package data

import (
	"testing"

	efs "github.com/redhat-openshift-ecosystem/e2e-notifier/internal/assets"
	"github.com/stretchr/testify/assert"
)

// TestDataTemplatesNotify asserts required notification templates are present in EFS.
func TestDataTemplatesNotify(t *testing.T) {
	type testCase struct {
		name   string
		assert func(tc *testCase)
	}
	cases := []testCase{
		{
			name: "notify-templates-required",
			assert: func(tc *testCase) {
				want := []string{
					"templates/notify/report.html",
					"templates/notify/report.txt",
				}
				got, err := efs.GetAllFilenames(efs.GetData(), "templates/notify")
				if err != nil {
					t.Fatalf("failed to read efs: %v", err)
				}
				assert.Equal(t, want, got, "notification templates are present")
			},
		},
		{
			name: "notify-templates-readable",
			assert: func(tc *testCase) {
				templates, err := efs.GetAllFilenames(efs.GetData(), "templates/notify")
				if err != nil {
					t.Fatalf("failed to read efs: %v", err)
				}
				for _, m := range templates {
					content, err := efs.ReadFile(m)
					if err != nil {
						t.Fatalf("unable to read template %s: %v", m, err)
					}
					assert.NotEmpty(t, content, "template %s is empty", m)
				}
			},
		},
		{
			name: "notify-templates-sub-fs",
			assert: func(tc *testCase) {
				sub, err := efs.NotifyTemplates()
				if err != nil {
					t.Fatalf("failed to open notify templates: %v", err)
				}
				got, err := efs.GetAllFilenames(sub, ".")
				if err != nil {
					t.Fatalf("failed to read sub fs: %v", err)
				}
				assert.Equal(t, []string{"report.html", "report.txt"}, got)
			},
		},
	}

	efs.UpdateData(Templates)

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.assert(&tc)
		})
	}
}
