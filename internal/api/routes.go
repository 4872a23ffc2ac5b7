package api

import (
	"github.com/labstack/echo/v4"

	"github.com/evalgo/digitaltwins/pkg/dtwinclient"
)

// registerRoutes binds every spec §4.2/§4.3/§4.5/§4.6 operation onto e,
// all scoped to client's one bound graph.
func registerRoutes(e *echo.Echo, client *dtwinclient.Client) {
	h := &handlers{client: client}

	models := e.Group("/models")
	models.POST("", h.createModels)
	models.GET("", h.listModels)
	models.GET("/:dtmi", h.getModel)
	models.PUT("/:dtmi", h.createOrReplaceModel)
	models.PATCH("/:dtmi", h.updateModel)
	models.DELETE("/:dtmi", h.deleteModel)
	models.DELETE("", h.deleteAllModels)

	twins := e.Group("/digitaltwins")
	twins.PUT("/:id", h.createOrReplaceTwin)
	twins.POST("", h.createOrReplaceTwinsBatch)
	twins.GET("/:id", h.getTwin)
	twins.PATCH("/:id", h.updateTwin)
	twins.DELETE("/:id", h.deleteTwin)
	twins.GET("/:id/components/:component", h.getComponent)
	twins.PATCH("/:id/components/:component", h.updateComponent)
	twins.PUT("/:id/relationships/:relationshipId", h.createOrReplaceRelationship)
	twins.GET("/:id/relationships/:relationshipId", h.getRelationship)
	twins.PATCH("/:id/relationships/:relationshipId", h.updateRelationship)
	twins.DELETE("/:id/relationships/:relationshipId", h.deleteRelationship)
	e.POST("/relationships", h.createOrReplaceRelationshipsBatch)

	e.POST("/query", h.query)

	jobs := e.Group("/jobs")
	jobs.GET("/:id", h.getJob)
	jobs.GET("", h.listJobs)
	jobs.POST("/import", h.startImport)
	jobs.POST("/delete", h.startDelete)
}
