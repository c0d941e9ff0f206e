package analysis

import "fmt"

// Kind classifies a submission failure. The handler maps kinds to HTTP
// statuses; everything else surfaces as an internal error.
type Kind string

const (
	KindExtraction Kind = "extraction"
	KindValidation Kind = "validation"
	KindDuplicate  Kind = "duplicate_submission"
	KindEnrichment Kind = "enrichment"
)

// Error is a classified submission failure. For duplicate_submission it
// also carries the offending sample id and the patient it already
// belongs to.
type Error struct {
	Kind        Kind
	Message     string
	SampleID    string
	PatientName string
	Err         error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func extractionErr(msg string, err error) *Error {
	return &Error{Kind: KindExtraction, Message: msg, Err: err}
}

func validationErr(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func enrichmentErr(msg string, err error) *Error {
	return &Error{Kind: KindEnrichment, Message: msg, Err: err}
}
