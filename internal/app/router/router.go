package router

import (
	"context"

	"credit-sim-worker/internal/app/handlers"

	"github.com/gin-gonic/gin"
)

func SetupRouter(ctx context.Context, runner handlers.SimulationRunnerInterface) *gin.Engine {
	server := gin.Default()

	healthCheckHandler := handlers.NewHealthCheckHandler()
	server.GET("/SimulationServices/CreditFact/SimulationWorkerService/HealthCheck", healthCheckHandler.HealthCheck)

	simulationHandler := handlers.NewSimulationHandler(runner)
	server.POST("/SimulationServices/CreditFact/SimulationWorkerService/RunBatch", simulationHandler.RunSimulationBatch)

	return server
}
