package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"

	"nidsboard/internal/dashboard"
	"nidsboard/internal/explain"
	"nidsboard/internal/logger"
	"nidsboard/internal/simulator"
	"nidsboard/pkg/models"
)

// ResponseError is the JSON error body of every API route.
type ResponseError struct {
	Message string `json:"message"`
}

// SimulateRequest is the body of POST /api/simulate.
type SimulateRequest struct {
	Model  string               `json:"model" validate:"required"`
	Sample models.TrafficSample `json:"sample"`
}

// Index renders the full page. Query: filter, sample, model, insight, importance.
func (s *Server) Index(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), s.timeout)
	defer cancel()

	ctrl := dashboard.NewController(s.renderer.Artifact(), s.renderer.AttributionModel())
	if err := ctrl.SetFilter(c.QueryParam("filter")); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	if raw := c.QueryParam("sample"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid sample id")
		}
		if err := ctrl.Open(id); err != nil {
			return c.String(http.StatusNotFound, err.Error())
		}
		if model := c.QueryParam("model"); model != "" {
			if err := ctrl.SelectModel(model); err != nil {
				return c.String(http.StatusNotFound, err.Error())
			}
		}
	}

	page, err := s.renderer.Page(ctx, ctrl, dashboard.View{
		InsightTab:    c.QueryParam("insight"),
		ImportanceKey: c.QueryParam("importance"),
	})
	if err != nil {
		logger.Errorf("Failed to render dashboard: %v", err)
		return c.String(http.StatusInternalServerError, "failed to render dashboard")
	}
	return c.HTML(http.StatusOK, page)
}

// Health reports liveness and the number of loaded samples.
func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "ok",
		"samples": len(s.renderer.Artifact().Samples),
	})
}

// SamplesFragment renders the sample grid for ?filter=.
func (s *Server) SamplesFragment(c echo.Context) error {
	ctrl := dashboard.NewController(s.renderer.Artifact(), s.renderer.AttributionModel())
	if err := ctrl.SetFilter(c.QueryParam("filter")); err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}
	return c.HTML(http.StatusOK, s.renderer.SampleGrid(ctrl.VisibleSamples(), ctrl.Filter()))
}

// ModalFragment renders the modal body for one sample and ?model=.
func (s *Server) ModalFragment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), s.timeout)
	defer cancel()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.String(http.StatusBadRequest, "invalid sample id")
	}
	filter, err := dashboard.ParseFilter(c.QueryParam("filter"))
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error())
	}

	ctrl := dashboard.NewController(s.renderer.Artifact(), s.renderer.AttributionModel())
	if err := ctrl.Open(id); err != nil {
		return c.String(http.StatusNotFound, err.Error())
	}
	if model := c.QueryParam("model"); model != "" {
		if err := ctrl.SelectModel(model); err != nil {
			return c.String(http.StatusNotFound, err.Error())
		}
	}

	sample, _ := ctrl.CurrentSample()
	body, err := s.renderer.Modal(ctx, sample, ctrl.Modal().Model, filter)
	if err != nil {
		if errors.Is(err, dashboard.ErrUnknownModel) || errors.Is(err, dashboard.ErrSampleNotFound) {
			return c.String(http.StatusNotFound, err.Error())
		}
		logger.Errorf("Failed to render sample %d: %v", id, err)
		return c.String(http.StatusInternalServerError, "failed to render sample")
	}
	return c.HTML(http.StatusOK, body)
}

// ImportanceFragment renders the bar chart for one importance key.
func (s *Server) ImportanceFragment(c echo.Context) error {
	key := c.Param("model")
	for _, k := range s.renderer.ImportanceKeys() {
		if k == key {
			return c.HTML(http.StatusOK, s.renderer.ImportanceChart(key))
		}
	}
	return c.String(http.StatusNotFound, "feature importance not found: "+key)
}

// InsightsFragment renders one insight tab.
func (s *Server) InsightsFragment(c echo.Context) error {
	tab := c.Param("tab")
	for _, t := range dashboard.InsightTabs {
		if t == tab {
			return c.HTML(http.StatusOK, s.renderer.Insights(tab))
		}
	}
	return c.String(http.StatusNotFound, "insight not found: "+tab)
}

// Explanation returns the composed explanation for a sample and ?model=.
func (s *Server) Explanation(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), s.timeout)
	defer cancel()

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid sample id"})
	}
	sample, ok := s.renderer.Artifact().Sample(id)
	if !ok {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "sample not found"})
	}
	model := c.QueryParam("model")
	if model == "" {
		model = s.explainer.AttributionModel()
	}

	exp, err := s.explainer.Explain(ctx, sample, model)
	if err != nil {
		if errors.Is(err, explain.ErrModelNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		logger.Errorf("Failed to explain sample %d: %v", id, err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: "failed to explain sample"})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(exp))
}

// ListPresets returns every simulator preset in display order.
func (s *Server) ListPresets(c echo.Context) error {
	return c.JSON(http.StatusOK, fres.Response.StatusOK(simulator.Presets()))
}

// GetPreset returns one preset by name.
func (s *Server) GetPreset(c echo.Context) error {
	p, ok := simulator.PresetByName(c.Param("name"))
	if !ok {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "preset not found"})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(p))
}

// Simulate classifies a hand-built connection record.
func (s *Server) Simulate(c echo.Context) error {
	var req SimulateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid body: " + err.Error()})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	res, err := s.sim.Simulate(req.Sample, req.Model)
	if err != nil {
		if errors.Is(err, simulator.ErrUnknownModel) || errors.Is(err, simulator.ErrInvalidSample) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		logger.Errorf("Simulation failed: %v", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: "simulation failed"})
	}
	return c.JSON(http.StatusOK, res)
}
