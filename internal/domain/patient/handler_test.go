package patient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/pathlab/pathlab/internal/domain/letter"
	"github.com/pathlab/pathlab/internal/domain/testresult"
)

type stubRepo struct {
	patients []*Patient
}

func (s *stubRepo) FindOrCreate(ctx context.Context, p *Patient) (bool, error) { return false, nil }

func (s *stubRepo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	for _, p := range s.patients {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubRepo) GetByNHSNumber(ctx context.Context, nhs string) (*Patient, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubRepo) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients, len(s.patients), nil
}

type stubLetterRepo struct {
	byPatient map[uuid.UUID]*letter.Letter
}

func (s *stubLetterRepo) Upsert(ctx context.Context, l *letter.Letter) (bool, error) {
	return false, nil
}

func (s *stubLetterRepo) GetByPatient(ctx context.Context, patientID uuid.UUID) (*letter.Letter, error) {
	if l, ok := s.byPatient[patientID]; ok {
		return l, nil
	}
	return nil, pgx.ErrNoRows
}

type stubResultRepo struct {
	rows []*testresult.TestResult
}

func (s *stubResultRepo) CreateBatch(ctx context.Context, results []*testresult.TestResult) (int, error) {
	return 0, nil
}

func (s *stubResultRepo) ListBySession(ctx context.Context, patientID uuid.UUID, analyzedAt time.Time) ([]*testresult.TestResult, error) {
	return nil, nil
}

func (s *stubResultRepo) ListRecent(ctx context.Context, patientID uuid.UUID, since time.Time) ([]*testresult.TestResult, error) {
	return nil, nil
}

func (s *stubResultRepo) FindBySampleID(ctx context.Context, sampleID string) (*testresult.SampleHit, error) {
	return nil, pgx.ErrNoRows
}

func (s *stubResultRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*testresult.TestResult, int, error) {
	var out []*testresult.TestResult
	for _, r := range s.rows {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func newTestHandler() (*Handler, *Patient) {
	p := &Patient{ID: uuid.New(), NHSNumber: "4857773456", Name: "John Smith"}
	letters := &stubLetterRepo{byPatient: map[uuid.UUID]*letter.Letter{
		p.ID: {ID: uuid.New(), PatientID: p.ID, Content: "<p>Dear John Smith,</p>"},
	}}
	results := &stubResultRepo{rows: []*testresult.TestResult{
		{ID: uuid.New(), PatientID: p.ID, TestName: "Haemoglobin (Hb)", Value: "14.2", Status: testresult.StatusNormal, AnalyzedAt: time.Now()},
	}}
	return NewHandler(&stubRepo{patients: []*Patient{p}}, letters, results), p
}

func TestList(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	if err := h.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Total != 1 {
		t.Errorf("total = %d, want 1", body.Total)
	}
}

func TestGet_WithLetterAndResults(t *testing.T) {
	h, p := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.Get(c); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body detailResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Patient == nil || body.Patient.NHSNumber != "4857773456" {
		t.Errorf("patient = %+v", body.Patient)
	}
	if body.Letter == nil {
		t.Error("letter missing")
	}
	if len(body.TestResults) != 1 {
		t.Errorf("results = %d, want 1", len(body.TestResults))
	}
}

func TestGet_UnknownPatient(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := h.Get(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
}

func TestGet_InvalidID(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	err := h.Get(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("err = %v, want 400", err)
	}
}

func TestListResults(t *testing.T) {
	h, p := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.ListResults(c); err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
