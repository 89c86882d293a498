// Package server exposes the validation pipeline over HTTP.
package server

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	validationservice "github.com/Boereck/DEMIS-validation-service"
)

// fhirJSON is the FHIR JSON media type used for responses.
const fhirJSON = "application/fhir+json"

// Server serves the $validate operation and a health endpoint.
type Server struct {
	echo     *echo.Echo
	pipeline *validationservice.Pipeline
	logger   zerolog.Logger
}

// New wires the routes over a ready pipeline.
func New(pipeline *validationservice.Pipeline, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, pipeline: pipeline, logger: logger}

	e.Use(recovery(logger))
	e.Use(requestID())
	e.Use(requestLogger(logger))

	e.POST("/fhir/$validate", s.handleValidate)
	e.GET("/healthz", s.handleHealth)
	return s
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// handleValidate validates the request body and answers with a FHIR
// OperationOutcome: 200 when the document passed, 422 when findings at or
// above the outcome threshold remain.
func (s *Server) handleValidate(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "reading request body")
	}
	if len(body) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "request body is empty")
	}

	outcome, err := s.pipeline.Validate(c.Request().Context(), body)
	if err != nil {
		rid, _ := c.Get("request_id").(string)
		s.logger.Error().Err(err).Str("request_id", rid).Msg("validation failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "validation failed")
	}

	status := http.StatusOK
	if !outcome.Valid() {
		status = http.StatusUnprocessableEntity
	}
	c.Response().Header().Set(echo.HeaderContentType, fhirJSON)
	return c.JSON(status, outcome.OperationOutcome())
}

// handleHealth reports liveness plus the pipeline counters.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": validationservice.Version,
		"metrics": s.pipeline.Metrics().Snapshot(),
	})
}
