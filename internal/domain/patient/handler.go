package patient

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/pathlab/pathlab/internal/domain/letter"
	"github.com/pathlab/pathlab/internal/domain/testresult"
	"github.com/pathlab/pathlab/pkg/pagination"
)

// Handler serves the read side: the patients the pipeline has created,
// each with their letter and result history.
type Handler struct {
	repo    Repository
	letters letter.Repository
	results testresult.Repository
}

func NewHandler(repo Repository, letters letter.Repository, results testresult.Repository) *Handler {
	return &Handler{repo: repo, letters: letters, results: results}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.List)
	api.GET("/patients/:id", h.Get)
	api.GET("/patients/:id/test-results", h.ListResults)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.repo.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type detailResponse struct {
	Patient     *Patient                 `json:"patient"`
	Letter      *letter.Letter           `json:"letter,omitempty"`
	TestResults []*testresult.TestResult `json:"testResults"`
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()

	p, err := h.repo.GetByID(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}

	l, err := h.letters.GetByPatient(ctx, id)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	pg := pagination.FromContext(c)
	results, _, err := h.results.ListByPatient(ctx, id, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, detailResponse{Patient: p, Letter: l, TestResults: results})
}

func (h *Handler) ListResults(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.results.ListByPatient(c.Request().Context(), id, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
