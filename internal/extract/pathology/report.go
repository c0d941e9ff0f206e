// Package pathology turns the flat text of a pathology report into
// structured patient details and test result rows. Parsing is anchored
// on the labelled fields and table layout the lab reports use; anything
// the text does not carry comes back as the zero value.
package pathology

import (
	"regexp"
	"strings"
)

// PatientDetails holds the demographic block of a report. Empty fields
// mean the report did not carry the value.
type PatientDetails struct {
	NHSNumber   string `json:"nhsNumber"`
	Name        string `json:"name"`
	DateOfBirth string `json:"dateOfBirth"`
	GPName      string `json:"gp"`
	SampleID    string `json:"sampleId"`
}

// TestResult is one row of the results table.
type TestResult struct {
	TestName       string `json:"testName"`
	Value          string `json:"value"`
	Unit           string `json:"unit"`
	ReferenceRange string `json:"referenceRange"`
	Status         string `json:"status"`
	Meaning        string `json:"meaning,omitempty"`
}

// Report is the full parse of one report.
type Report struct {
	Patient PatientDetails `json:"patientDetails"`
	Results []TestResult   `json:"testResults"`
}

var collapseSpace = regexp.MustCompile(`\s+`)

// ParseReport parses extracted report text. The text is flattened to a
// single whitespace-normalized line first so the field and table
// patterns never have to care about line breaks.
func ParseReport(extractedText string) Report {
	text := strings.TrimSpace(collapseSpace.ReplaceAllString(extractedText, " "))
	return Report{
		Patient: ParsePatientDetails(text),
		Results: ParseTestResults(text),
	}
}
