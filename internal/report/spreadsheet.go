package report

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	sheetCases   = "test-cases"
	sheetSummary = "summary"
)

// Spreadsheet renders the summary as a xlsx workbook: one sheet with the
// counters and build data, one row per test case on the other.
func Spreadsheet(bc BuildContext, s ReportSummary) ([]byte, error) {
	sheet := excelize.NewFile()
	defer func() {
		if err := sheet.Close(); err != nil {
			log.Debugf("unable to close spreadsheet: %v", err)
		}
	}()

	// reuse the default sheet for the summary
	if err := sheet.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, errors.Wrap(err, "unable to create summary sheet")
	}
	summaryRows := [][]interface{}{
		{"Job", bc.JobName},
		{"Build number", bc.BuildNumber},
		{"Status", bc.BuildStatus.String()},
		{"Build URL", bc.BuildURL},
		{"Deployment URL", bc.DeploymentURL},
		{"Total", s.Total()},
		{"Passed", s.Passed()},
		{"Failed", s.Failed()},
		{"Skipped", s.Skipped()},
	}
	for idx, row := range summaryRows {
		cell := fmt.Sprintf("A%d", idx+1)
		if err := sheet.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return nil, errors.Wrapf(err, "unable to write summary row %d", idx+1)
		}
	}

	idx, err := sheet.NewSheet(sheetCases)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create cases sheet")
	}
	if err := createCasesHeader(sheet); err != nil {
		return nil, errors.Wrap(err, "unable to write cases header")
	}
	if err := populateCases(sheet, s); err != nil {
		return nil, err
	}
	sheet.SetActiveSheet(idx)

	var buf bytes.Buffer
	if err := sheet.Write(&buf); err != nil {
		return nil, errors.Wrap(err, "unable to write spreadsheet")
	}
	return buf.Bytes(), nil
}

// createCasesHeader creates the excel spreadsheet headers
func createCasesHeader(sheet *excelize.File) error {
	header := []interface{}{"Index", "Suite", "Class", "Test_Name", "Outcome", "Seconds", "Details"}
	return sheet.SetSheetRow(sheetCases, "A1", &header)
}

// populateCases fill each row per test case.
func populateCases(sheet *excelize.File, s ReportSummary) error {
	rowN := 2
	for idx, c := range s.cases {
		row := []interface{}{
			idx + 1,
			c.Suite,
			c.ClassName,
			c.Name,
			c.Outcome.String(),
			c.Duration.Seconds(),
			c.Outcome.Detail,
		}
		if err := sheet.SetSheetRow(sheetCases, fmt.Sprintf("A%d", rowN), &row); err != nil {
			return errors.Wrapf(err, "unable to write test case %q", c.Name)
		}
		rowN++
	}
	return nil
}
