package analysis

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/reports/analyze", h.Analyze)
	api.POST("/reports/extract-text", h.ExtractText)
}

type errorBody struct {
	Error       string `json:"error"`
	Message     string `json:"message"`
	SampleID    string `json:"sample_id,omitempty"`
	PatientName string `json:"patient_name,omitempty"`
}

func statusForKind(k Kind) int {
	switch k {
	case KindExtraction:
		return http.StatusBadRequest
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindDuplicate:
		return http.StatusConflict
	case KindEnrichment:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return c.JSON(statusForKind(ae.Kind), errorBody{
			Error:       string(ae.Kind),
			Message:     ae.Message,
			SampleID:    ae.SampleID,
			PatientName: ae.PatientName,
		})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func readUpload(c echo.Context) ([]byte, error) {
	fh, err := c.FormFile("pdf")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "pdf file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "could not read upload")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "could not read upload")
	}
	return data, nil
}

// Analyze is the submission endpoint: multipart pdf in, reconciled
// analysis out. An optional analyzed_at field (RFC 3339) pins the
// session timestamp, matching what the uploading client recorded.
func (h *Handler) Analyze(c echo.Context) error {
	data, err := readUpload(c)
	if err != nil {
		return err
	}

	var analyzedAt time.Time
	if v := c.FormValue("analyzed_at"); v != "" {
		analyzedAt, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "analyzed_at must be RFC 3339")
		}
	}

	result, err := h.svc.Submit(c.Request().Context(), data, analyzedAt)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// ExtractText is the diagnostic endpoint: extraction and parsing only,
// nothing stored.
func (h *Handler) ExtractText(c echo.Context) error {
	data, err := readUpload(c)
	if err != nil {
		return err
	}
	preview, err := h.svc.ExtractText(data)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, preview)
}
