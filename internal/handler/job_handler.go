package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pagwall/gateway-settlement/internal/batch"
	"github.com/pagwall/gateway-settlement/internal/dto"
	"github.com/pagwall/gateway-settlement/internal/ingestion"
)

// JobHandler exposes the batch jobs over HTTP, mirroring the carga CLI.
type JobHandler struct {
	orch         *batch.Orchestrator
	jobs         *batch.Jobs
	defaultLimit int
}

func NewJobHandler(orch *batch.Orchestrator, jobs *batch.Jobs, defaultLimit int) *JobHandler {
	return &JobHandler{orch: orch, jobs: jobs, defaultLimit: defaultLimit}
}

func (h *JobHandler) Run(c *gin.Context) {
	jobType := c.Param("type")

	var req dto.RunJobRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "validation failed: " + err.Error()})
		return
	}

	limit := req.Limit
	if limit == 0 {
		limit = h.defaultLimit
	}

	window, err := parseWindow(req.WindowFrom, req.WindowTo)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	var spec batch.JobSpec
	switch jobType {
	case batch.JobExtrato:
		spec = h.jobs.Extrato(window, limit)
	case batch.JobGestao:
		spec = h.jobs.Gestao(limit)
	case batch.JobLiquidacao:
		spec = h.jobs.Liquidacao(window, limit)
	case batch.JobAjustes:
		spec = h.jobs.Ajustes()
	default:
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "unknown job type: " + jobType})
		return
	}

	report, err := h.orch.Run(c.Request.Context(), spec)
	if err != nil {
		c.Error(err)
		return
	}

	switch report.Status {
	case batch.StatusAlreadyRunning:
		c.JSON(http.StatusConflict, report)
	case batch.StatusFailed:
		c.JSON(http.StatusInternalServerError, report)
	default:
		c.JSON(http.StatusOK, report)
	}
}

// parseWindow defaults to the previous full day, the usual carga window.
func parseWindow(fromStr, toStr string) (ingestion.Window, error) {
	now := time.Now().UTC()
	w := ingestion.Window{
		From: now.AddDate(0, 0, -1).Truncate(24 * time.Hour),
		To:   now.Truncate(24 * time.Hour),
	}

	if fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			return w, err
		}
		w.From = from
	}
	if toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			return w, err
		}
		w.To = to
	}
	return w, nil
}
