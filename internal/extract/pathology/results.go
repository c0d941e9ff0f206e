package pathology

import (
	"regexp"
	"strings"
)

// resultsSection isolates the tabular block between the table header and
// the trailing commentary.
var resultsSection = regexp.MustCompile(`(?i)Test\s*Results\s*Test\s*Result\s*Reference\s*Range\s*(.*?)(?:Comments|All\s*results|$)`)

// knownTest is a row pattern for one assay the reports print in a fixed
// layout. The pattern captures the measured value and the reference
// range, with the unit repeated after each.
type knownTest struct {
	name    string
	unit    string
	pattern *regexp.Regexp
}

var knownTests = []knownTest{
	{
		name:    "Haemoglobin (Hb)",
		unit:    "g/dL",
		pattern: regexp.MustCompile(`(?i)Haemoglobin\s*\(Hb\)\s+([\d.]+)\s+g/dL\s+([\d.]+\s*-\s*[\d.]+)\s+g/dL`),
	},
	{
		name:    "White Blood Cells (WBC)",
		unit:    "x10^9/L",
		pattern: regexp.MustCompile(`(?i)White\s*Blood\s*Cells\s*\(WBC\)\s+([\d.]+)\s+x10\^9/L\s+([\d.]+\s*-\s*[\d.]+)\s+x10\^9/L`),
	},
	{
		name:    "Platelets",
		unit:    "x10^9/L",
		pattern: regexp.MustCompile(`(?i)Platelets\s+([\d.]+)\s+x10\^9/L\s+([\d.]+\s*-\s*[\d.]+)\s+x10\^9/L`),
	},
	{
		name:    "Creatinine",
		unit:    "µmol/L",
		pattern: regexp.MustCompile(`(?i)Creatinine\s+([\d.]+)\s+µmol/L\s+([\d.]+\s*-\s*[\d.]+)\s+µmol/L`),
	},
	{
		name:    "ALT (Liver Enzyme)",
		unit:    "U/L",
		pattern: regexp.MustCompile(`(?i)ALT\s*\(Liver\s*Enzyme\)\s+([\d.]+)\s+U/L\s+([\d.]+\s*-\s*[\d.]+)\s+U/L`),
	},
	{
		name:    "CRP (Inflammation)",
		unit:    "mg/L",
		pattern: regexp.MustCompile(`(?i)CRP\s*\(Inflammation\)\s+([\d.]+)\s+mg/L\s+(<[\d.]+)\s+mg/L`),
	},
}

// generalRow is the fallback row shape: name, value, unit, range, range
// unit. Only used when none of the known assay rows matched, since it is
// far more permissive.
var generalRow = regexp.MustCompile(`([A-Za-z\s()]+?)\s+([\d.]+)\s+([A-Za-z/^0-9μµ°%]+)\s+([\d.<>\s\-]+)\s+([A-Za-z/^0-9μµ°%]+)`)

// ParseTestResults extracts the result rows from whitespace-normalized
// report text. Rows for the known assays are matched first; the general
// row shape only runs when no known assay was found.
func ParseTestResults(text string) []TestResult {
	var results []TestResult

	m := resultsSection.FindStringSubmatch(text)
	if m == nil {
		return results
	}
	section := strings.TrimSpace(m[1])

	for _, kt := range knownTests {
		row := kt.pattern.FindStringSubmatch(section)
		if row == nil {
			continue
		}
		value, refRange := row[1], row[2]
		results = append(results, TestResult{
			TestName:       kt.name,
			Value:          value,
			Unit:           kt.unit,
			ReferenceRange: refRange + " " + kt.unit,
			Status:         DetermineStatus(value, refRange),
		})
	}
	if len(results) > 0 {
		return results
	}

	for _, row := range generalRow.FindAllStringSubmatch(section, -1) {
		name := strings.TrimSpace(row[1])
		value := strings.TrimSpace(row[2])
		unit := strings.TrimSpace(row[3])
		refRange := strings.TrimSpace(row[4])
		rangeUnit := strings.TrimSpace(row[5])

		lower := strings.ToLower(name)
		if len(name) < 3 || strings.Contains(lower, "test") || strings.Contains(lower, "result") {
			continue
		}

		results = append(results, TestResult{
			TestName:       name,
			Value:          value,
			Unit:           unit,
			ReferenceRange: refRange + " " + rangeUnit,
			Status:         DetermineStatus(value, refRange),
		})
	}
	return results
}
