package handlers

import (
	"context"
	"errors"
	"net/http"

	"credit-sim-worker/internal/service/simulation"

	"github.com/gin-gonic/gin"
)

// SimulationRunnerInterface is the orchestrator surface the HTTP
// trigger needs.
type SimulationRunnerInterface interface {
	RunBatch(ctx context.Context, batchID string) (*simulation.BatchSummary, error)
}

type SimulationHandler struct {
	service SimulationRunnerInterface
}

func NewSimulationHandler(service SimulationRunnerInterface) *SimulationHandler {
	return &SimulationHandler{
		service: service,
	}
}

// RunSimulationBatch triggers a batch run and responds with its
// summary. An omitted batch_id starts a fresh batch.
func (h *SimulationHandler) RunSimulationBatch(c *gin.Context) {
	batchID := c.Query("batch_id")

	summary, err := h.service.RunBatch(c.Request.Context(), batchID)
	if err != nil {
		switch {
		case errors.Is(err, simulation.ErrBatchAlreadyRunning):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, simulation.ErrEmptyPortfolio), errors.Is(err, simulation.ErrEmptyMacroTimeline):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, summary)
}
