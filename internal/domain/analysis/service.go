// Package analysis owns the submission pipeline: extract the report
// text, identify the sample, parse and enrich the content, and
// reconcile everything into storage exactly once.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/pathlab/pathlab/internal/domain/letter"
	"github.com/pathlab/pathlab/internal/domain/patient"
	"github.com/pathlab/pathlab/internal/domain/testresult"
	"github.com/pathlab/pathlab/internal/extract/pathology"
	"github.com/pathlab/pathlab/internal/extract/sampleid"
	"github.com/pathlab/pathlab/internal/platform/enrich"
)

// Duplicate-prevention policies. A deployment runs exactly one; their
// semantics are incompatible and must never blend.
const (
	// PolicySession deduplicates per analysis timestamp: a replay of the
	// exact timestamp returns the stored rows, and byte-identical rows
	// within a one-second window are suppressed.
	PolicySession = "session"
	// PolicySample rejects any submission whose sample id is already
	// stored, for any patient.
	PolicySample = "sample"
)

// TxRunner executes fn inside one database transaction carried in the
// context it passes to fn. Production wiring uses db.WithTx; tests run
// fn directly.
type TxRunner func(ctx context.Context, fn func(context.Context) error) error

// TextExtractor yields the plain text of an uploaded document.
// Satisfied by pdftext.Extractor.
type TextExtractor interface {
	Extract(data []byte) (string, error)
}

// SubmissionResult is what one accepted submission produced.
type SubmissionResult struct {
	Patient             *patient.Patient         `json:"patient"`
	Letter              *letter.Letter           `json:"letter"`
	TestResults         []*testresult.TestResult `json:"testResults"`
	IsNewPatient        bool                     `json:"isNewPatient"`
	IsNewLetter         bool                     `json:"isNewLetter"`
	NewTestResultsCount int                      `json:"newTestResultsCount"`
}

// ExtractionPreview is the diagnostic extract-only view of a document:
// no enrichment, no writes.
type ExtractionPreview struct {
	Text               string               `json:"text"`
	Report             pathology.Report     `json:"report"`
	SampleIDCandidates []sampleid.Candidate `json:"sampleIdCandidates"`
}

type Service struct {
	patients      patient.Repository
	letters       letter.Repository
	results       testresult.Repository
	extractor     TextExtractor
	enricher      enrich.Enricher
	runTx         TxRunner
	policy        string
	enrichTimeout time.Duration
	log           zerolog.Logger
	now           func() time.Time
}

func NewService(
	patients patient.Repository,
	letters letter.Repository,
	results testresult.Repository,
	extractor TextExtractor,
	enricher enrich.Enricher,
	runTx TxRunner,
	policy string,
	enrichTimeout time.Duration,
	log zerolog.Logger,
) *Service {
	return &Service{
		patients:      patients,
		letters:       letters,
		results:       results,
		extractor:     extractor,
		enricher:      enricher,
		runTx:         runTx,
		policy:        policy,
		enrichTimeout: enrichTimeout,
		log:           log.With().Str("component", "analysis").Logger(),
		now:           time.Now,
	}
}

// Submit runs the full pipeline for one uploaded document. analyzedAt
// stamps every stored result of this run and is the session key under
// the session policy; the zero value means "now". All storage writes
// happen inside a single transaction at the end, so a failure at any
// earlier stage writes nothing.
func (s *Service) Submit(ctx context.Context, pdfData []byte, analyzedAt time.Time) (*SubmissionResult, error) {
	text, err := s.extractor.Extract(pdfData)
	if err != nil {
		return nil, extractionErr("could not extract text from document", err)
	}

	report := pathology.ParseReport(text)
	sampleID := sampleid.Extract(text)
	if sampleID == "" {
		sampleID = report.Patient.SampleID
	}

	// Under the sample policy a known sample id fails fast, before the
	// (slow, paid) enrichment call.
	if s.policy == PolicySample && sampleID != "" {
		if err := s.checkSampleUnknown(ctx, sampleID); err != nil {
			var ae *Error
			if errors.As(err, &ae) {
				return nil, ae
			}
			return nil, fmt.Errorf("sample id pre-check: %w", err)
		}
	}

	ectx, cancel := context.WithTimeout(ctx, s.enrichTimeout)
	defer cancel()
	bundle, err := s.enricher.Enrich(ectx, enrich.Input{
		PatientDetails: report.Patient,
		PlainText:      text,
		TestResults:    report.Results,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, enrichmentErr("analysis timed out", err)
		}
		return nil, enrichmentErr("analysis failed", err)
	}

	details := mergeDetails(report.Patient, bundle.PatientDetails)
	if sampleID == "" {
		sampleID = details.SampleID
	}

	nhsNumber := normalizeNHS(details.NHSNumber)
	switch {
	case nhsNumber == "":
		return nil, validationErr("report carries no NHS number")
	case details.Name == "":
		return nil, validationErr("report carries no patient name")
	case len(bundle.TestResults) == 0:
		return nil, validationErr("report carries no test results")
	case bundle.DoctorsLetter == "":
		return nil, validationErr("analysis produced no doctor's letter")
	}

	if analyzedAt.IsZero() {
		analyzedAt = s.now()
	}
	analyzedAt = analyzedAt.UTC().Truncate(time.Microsecond)

	p := &patient.Patient{
		NHSNumber:   nhsNumber,
		Name:        details.Name,
		DateOfBirth: parseDOB(details.DateOfBirth),
		GPName:      strPtr(details.GPName),
	}
	if details.DateOfBirth != "" && p.DateOfBirth == nil {
		s.log.Warn().Str("date_of_birth", details.DateOfBirth).Msg("unparseable date of birth, storing null")
	}
	rows := buildRows(bundle.TestResults, sampleID, analyzedAt)

	var out SubmissionResult
	txErr := s.runTx(ctx, func(ctx context.Context) error {
		return s.reconcile(ctx, p, bundle.DoctorsLetter, rows, sampleID, analyzedAt, &out)
	})
	if txErr != nil {
		var ae *Error
		if errors.As(txErr, &ae) {
			return nil, ae
		}
		return nil, fmt.Errorf("reconcile submission: %w", txErr)
	}

	s.log.Info().
		Str("nhs_number", p.NHSNumber).
		Bool("new_patient", out.IsNewPatient).
		Int("new_results", out.NewTestResultsCount).
		Time("analyzed_at", analyzedAt).
		Msg("submission reconciled")
	return &out, nil
}

// reconcile is the sole write path. It runs inside the transaction
// provided by Submit.
func (s *Service) reconcile(ctx context.Context, p *patient.Patient, letterHTML string, rows []*testresult.TestResult, sampleID string, analyzedAt time.Time, out *SubmissionResult) error {
	created, err := s.patients.FindOrCreate(ctx, p)
	if err != nil {
		return fmt.Errorf("find or create patient: %w", err)
	}
	out.Patient = p
	out.IsNewPatient = created
	for _, r := range rows {
		r.PatientID = p.ID
	}

	if s.policy == PolicySample && sampleID != "" {
		// The pre-check ran before enrichment; repeat it here so a
		// submission racing past it still writes nothing.
		if err := s.checkSampleUnknown(ctx, sampleID); err != nil {
			return err
		}
	}

	// Session rows to return when suppression leaves nothing to insert.
	var suppressed []*testresult.TestResult
	if s.policy == PolicySession {
		existing, err := s.results.ListBySession(ctx, p.ID, analyzedAt)
		if err != nil {
			return fmt.Errorf("look up session: %w", err)
		}
		if len(existing) > 0 {
			out.TestResults = existing
			out.NewTestResultsCount = 0
			l, err := s.letters.GetByPatient(ctx, p.ID)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("look up letter: %w", err)
			}
			out.Letter = l
			s.log.Info().Str("nhs_number", p.NHSNumber).Time("analyzed_at", analyzedAt).Msg("session replay, nothing inserted")
			return nil
		}

		recent, err := s.results.ListRecent(ctx, p.ID, analyzedAt.Add(-time.Second))
		if err != nil {
			return fmt.Errorf("look up recent results: %w", err)
		}
		before := len(rows)
		rows = suppressIdentical(rows, recent)
		if dropped := before - len(rows); dropped > 0 {
			s.log.Info().Int("suppressed", dropped).Str("nhs_number", p.NHSNumber).Msg("suppressed retry duplicates")
		}
		if len(rows) == 0 {
			// Every row in this submission was stored moments ago. Hand
			// those rows back rather than an empty session.
			suppressed = recent
		}
	}

	l := &letter.Letter{PatientID: p.ID, Content: letterHTML}
	newLetter, err := s.letters.Upsert(ctx, l)
	if err != nil {
		return fmt.Errorf("store letter: %w", err)
	}
	out.Letter = l
	out.IsNewLetter = newLetter

	if suppressed != nil {
		out.TestResults = suppressed
		out.NewTestResultsCount = 0
		return nil
	}

	// CreateBatch inserts with ON CONFLICT DO NOTHING, so a run racing
	// this one over the same rows cannot abort the transaction; it just
	// wins those rows and inserted counts only ours.
	inserted, err := s.results.CreateBatch(ctx, rows)
	if err != nil {
		return fmt.Errorf("store test results: %w", err)
	}
	out.NewTestResultsCount = inserted

	stored, err := s.results.ListBySession(ctx, p.ID, analyzedAt)
	if err != nil {
		return fmt.Errorf("list session results: %w", err)
	}
	out.TestResults = stored
	return nil
}

// ExtractText is the diagnostic extract-only operation: text, parse and
// sample id candidates, with no enrichment and no writes.
func (s *Service) ExtractText(pdfData []byte) (*ExtractionPreview, error) {
	text, err := s.extractor.Extract(pdfData)
	if err != nil {
		return nil, extractionErr("could not extract text from document", err)
	}
	return &ExtractionPreview{
		Text:               text,
		Report:             pathology.ParseReport(text),
		SampleIDCandidates: sampleid.ExtractAll(text),
	}, nil
}

// checkSampleUnknown returns a duplicate_submission error when the
// sample id is already stored for any patient.
func (s *Service) checkSampleUnknown(ctx context.Context, sampleID string) error {
	hit, err := s.results.FindBySampleID(ctx, sampleID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up sample id: %w", err)
	}
	return &Error{
		Kind:        KindDuplicate,
		Message:     fmt.Sprintf("sample %s was already submitted for %s", sampleID, hit.PatientName),
		SampleID:    sampleID,
		PatientName: hit.PatientName,
	}
}

// mergeDetails prefers the enriched demographics and falls back to the
// locally parsed ones field by field.
func mergeDetails(parsed, enriched pathology.PatientDetails) pathology.PatientDetails {
	return pathology.PatientDetails{
		NHSNumber:   firstNonEmpty(enriched.NHSNumber, parsed.NHSNumber),
		Name:        firstNonEmpty(enriched.Name, parsed.Name),
		DateOfBirth: firstNonEmpty(enriched.DateOfBirth, parsed.DateOfBirth),
		GPName:      firstNonEmpty(enriched.GPName, parsed.GPName),
		SampleID:    firstNonEmpty(enriched.SampleID, parsed.SampleID),
	}
}

func buildRows(parsed []pathology.TestResult, sampleID string, analyzedAt time.Time) []*testresult.TestResult {
	rows := make([]*testresult.TestResult, 0, len(parsed))
	for _, tr := range parsed {
		rows = append(rows, &testresult.TestResult{
			SampleID:       strPtr(sampleID),
			TestName:       tr.TestName,
			Value:          tr.Value,
			Unit:           strPtr(tr.Unit),
			ReferenceRange: tr.ReferenceRange,
			Status:         strings.ToUpper(tr.Status),
			Meaning:        strPtr(tr.Meaning),
			AnalyzedAt:     analyzedAt,
		})
	}
	return rows
}

// suppressIdentical drops rows byte-identical (name, value, unit) to a
// recently stored row. Best effort against rapid client retries;
// legitimately distinct concurrent tests pass through.
func suppressIdentical(rows, recent []*testresult.TestResult) []*testresult.TestResult {
	if len(recent) == 0 {
		return rows
	}
	seen := make(map[string]bool, len(recent))
	for _, r := range recent {
		seen[rowKey(r)] = true
	}
	kept := rows[:0]
	for _, r := range rows {
		if seen[rowKey(r)] {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

func rowKey(r *testresult.TestResult) string {
	unit := ""
	if r.Unit != nil {
		unit = *r.Unit
	}
	return r.TestName + "\x00" + r.Value + "\x00" + unit
}

var nhsSeparators = regexp.MustCompile(`[\s-]+`)

// normalizeNHS compacts an NHS number to bare digits-and-letters form so
// "485 777 3456" and "485-777-3456" resolve to the same patient.
func normalizeNHS(s string) string {
	return nhsSeparators.ReplaceAllString(strings.TrimSpace(s), "")
}

var dobLayouts = []string{"02/01/2006", "2006-01-02", "02-01-2006", "02.01.2006"}

// parseDOB parses the date-of-birth formats the reports use. An
// unparseable date persists as NULL rather than failing the submission.
func parseDOB(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
