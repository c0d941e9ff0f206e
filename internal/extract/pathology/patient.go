package pathology

import (
	"regexp"
	"strings"
)

// Field anchors for the demographic block. Name and GP are free text,
// so their captures are bounded by the label that follows them in the
// report layout.
var (
	nhsNumberRe   = regexp.MustCompile(`(?i)NHS\s*Number[:\s]+([\d\s]+)`)
	patientNameRe = regexp.MustCompile(`(?i)Name[:\s]+([A-Za-z\s]+?)(?:\s+NHS|\s+Date|\s+GP|\s+Sample|$)`)
	dobRe         = regexp.MustCompile(`(?i)Date\s*of\s*Birth[:\s]+([\d/\-.]+)`)
	gpRe          = regexp.MustCompile(`(?i)GP[:\s]+([A-Za-z\s,.]+?)(?:\s+Sample|\s+Test|\s+Report|$)`)
	sampleFieldRe = regexp.MustCompile(`(?i)Sample\s*ID[:\s]+([\w\-]+)`)

	digitSpace = regexp.MustCompile(`\s`)
)

// ParsePatientDetails pulls the labelled demographic fields out of
// whitespace-normalized report text. NHS numbers are compacted, since
// reports print them in grouped-digit form.
func ParsePatientDetails(text string) PatientDetails {
	var d PatientDetails

	if m := nhsNumberRe.FindStringSubmatch(text); m != nil {
		d.NHSNumber = strings.TrimSpace(digitSpace.ReplaceAllString(m[1], ""))
	}
	if m := patientNameRe.FindStringSubmatch(text); m != nil {
		d.Name = strings.TrimSpace(m[1])
	}
	if m := dobRe.FindStringSubmatch(text); m != nil {
		d.DateOfBirth = strings.TrimSpace(m[1])
	}
	if m := gpRe.FindStringSubmatch(text); m != nil {
		d.GPName = strings.TrimSpace(m[1])
	}
	if m := sampleFieldRe.FindStringSubmatch(text); m != nil {
		d.SampleID = strings.TrimSpace(m[1])
	}
	return d
}
