package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/evalgo/digitaltwins/internal/catalog"
	"github.com/evalgo/digitaltwins/internal/dataplane"
	"github.com/evalgo/digitaltwins/internal/deleter"
	"github.com/evalgo/digitaltwins/internal/dtdl"
	"github.com/evalgo/digitaltwins/internal/importer"
	"github.com/evalgo/digitaltwins/internal/jobs"
	"github.com/evalgo/digitaltwins/pkg/dtwinclient"
)

// handlers holds the one dependency every route needs: a client bound to
// this process's single graph.
type handlers struct {
	client *dtwinclient.Client
}

// --- models (spec §4.2) ---

func (h *handlers) createModels(c echo.Context) error {
	var docs []string
	if err := c.Bind(&docs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "body must be a JSON array of DTDL documents")
	}
	raw := make([][]byte, len(docs))
	for i, d := range docs {
		raw[i] = []byte(d)
	}
	created, err := h.client.CreateModels(c.Request().Context(), raw)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *handlers) getModel(c echo.Context) error {
	opts := catalog.GetOptions{
		IncludeDocument:  c.QueryParam("includeDocument") == "true",
		IncludeFlattened: c.QueryParam("includeFlattened") == "true",
	}
	view, err := h.client.GetModel(c.Request().Context(), dtdl.DTMI(c.Param("dtmi")), opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func (h *handlers) listModels(c echo.Context) error {
	opts := catalog.GetOptions{
		IncludeDocument:  c.QueryParam("includeDocument") == "true",
		IncludeFlattened: c.QueryParam("includeFlattened") == "true",
	}
	var views []*catalog.ModelView
	err := h.client.GetModels(c.Request().Context(), opts, func(v *catalog.ModelView) error {
		views = append(views, v)
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

func (h *handlers) createOrReplaceModel(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}
	dtmi := dtdl.DTMI(c.Param("dtmi"))
	if err := h.client.CreateOrReplaceModel(c.Request().Context(), dtmi, body); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) updateModel(c echo.Context) error {
	var req struct {
		Decommissioned bool `json:"decommissioned"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid update body")
	}
	if err := h.client.UpdateModel(c.Request().Context(), dtdl.DTMI(c.Param("dtmi")), req.Decommissioned); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) deleteModel(c echo.Context) error {
	if err := h.client.DeleteModel(c.Request().Context(), dtdl.DTMI(c.Param("dtmi"))); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) deleteAllModels(c echo.Context) error {
	n, err := h.client.DeleteAllModels(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int{"deleted": n})
}

// --- twins / components / relationships (spec §4.3) ---

func (h *handlers) createOrReplaceTwin(c echo.Context) error {
	var body map[string]interface{}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid twin body")
	}
	twin, err := h.client.CreateOrReplaceDigitalTwin(c.Request().Context(), c.Param("id"), body, c.Request().Header.Get("If-None-Match"))
	if err != nil {
		return err
	}
	c.Response().Header().Set("ETag", twin.ETag)
	return c.JSON(http.StatusOK, twinJSON(twin))
}

func (h *handlers) createOrReplaceTwinsBatch(c echo.Context) error {
	var items map[string]map[string]interface{}
	if err := c.Bind(&items); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "body must be a map of twin ID to twin body")
	}
	result, err := h.client.CreateOrReplaceDigitalTwins(c.Request().Context(), items)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, batchResultJSON(result))
}

func (h *handlers) getTwin(c echo.Context) error {
	twin, err := h.client.GetDigitalTwin(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	c.Response().Header().Set("ETag", twin.ETag)
	return c.JSON(http.StatusOK, twinJSON(twin))
}

func (h *handlers) updateTwin(c echo.Context) error {
	patch, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read patch body")
	}
	twin, err := h.client.UpdateDigitalTwin(c.Request().Context(), c.Param("id"), patch, c.Request().Header.Get("If-Match"))
	if err != nil {
		return err
	}
	c.Response().Header().Set("ETag", twin.ETag)
	return c.JSON(http.StatusOK, twinJSON(twin))
}

func (h *handlers) deleteTwin(c echo.Context) error {
	force, _ := strconv.ParseBool(c.QueryParam("force"))
	if err := h.client.DeleteDigitalTwin(c.Request().Context(), c.Param("id"), c.Request().Header.Get("If-Match"), force); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) getComponent(c echo.Context) error {
	comp, err := h.client.GetComponent(c.Request().Context(), c.Param("id"), c.Param("component"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, comp)
}

func (h *handlers) updateComponent(c echo.Context) error {
	patch, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read patch body")
	}
	twin, err := h.client.UpdateComponent(c.Request().Context(), c.Param("id"), c.Param("component"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, twinJSON(twin))
}

func (h *handlers) createOrReplaceRelationship(c echo.Context) error {
	raw := map[string]interface{}{}
	if err := c.Bind(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid relationship body")
	}
	targetID, _ := raw["$targetId"].(string)
	name, _ := raw["$relationshipName"].(string)
	delete(raw, "$targetId")
	delete(raw, "$relationshipName")

	rel, err := h.client.CreateOrReplaceRelationship(c.Request().Context(), c.Param("id"), c.Param("relationshipId"), targetID, name, raw, c.Request().Header.Get("If-None-Match"))
	if err != nil {
		return err
	}
	c.Response().Header().Set("ETag", rel.ETag)
	return c.JSON(http.StatusOK, relationshipJSON(rel))
}

func (h *handlers) createOrReplaceRelationshipsBatch(c echo.Context) error {
	var items []dataplane.RelationshipCreateRequest
	if err := c.Bind(&items); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "body must be an array of relationship requests")
	}
	result, err := h.client.CreateOrReplaceRelationships(c.Request().Context(), items)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, batchResultJSON(result))
}

func (h *handlers) getRelationship(c echo.Context) error {
	rel, err := h.client.GetRelationship(c.Request().Context(), c.Param("id"), c.Param("relationshipId"))
	if err != nil {
		return err
	}
	c.Response().Header().Set("ETag", rel.ETag)
	return c.JSON(http.StatusOK, relationshipJSON(rel))
}

func (h *handlers) updateRelationship(c echo.Context) error {
	patch, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read patch body")
	}
	rel, err := h.client.UpdateRelationship(c.Request().Context(), c.Param("id"), c.Param("relationshipId"), patch, c.Request().Header.Get("If-Match"))
	if err != nil {
		return err
	}
	c.Response().Header().Set("ETag", rel.ETag)
	return c.JSON(http.StatusOK, relationshipJSON(rel))
}

func (h *handlers) deleteRelationship(c echo.Context) error {
	if err := h.client.DeleteRelationship(c.Request().Context(), c.Param("id"), c.Param("relationshipId"), c.Request().Header.Get("If-Match")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- query (spec §4.5) ---

func (h *handlers) query(c echo.Context) error {
	var req struct {
		Query             string `json:"query"`
		ContinuationToken string `json:"continuationToken"`
		MaxItemCount      int    `json:"maxItemCount"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query request")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query must not be empty")
	}
	page, err := h.client.Pages(c.Request().Context(), req.Query, req.ContinuationToken, req.MaxItemCount)
	if err != nil {
		return err
	}
	resp := map[string]interface{}{"value": page.Values}
	if page.ContinuationToken != nil {
		resp["continuationToken"] = *page.ContinuationToken
	}
	return c.JSON(http.StatusOK, resp)
}

// --- jobs (spec §4.6/§4.7) ---

func (h *handlers) getJob(c echo.Context) error {
	rec, err := h.client.GetJob(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *handlers) listJobs(c echo.Context) error {
	jobType := jobs.JobType(c.QueryParam("type"))
	recs, err := h.client.ListJobs(c.Request().Context(), jobType)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recs)
}

func (h *handlers) startImport(c echo.Context) error {
	jobID := c.QueryParam("jobId")
	if jobID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "jobId query parameter is required")
	}
	opts := importer.Options{ContinueOnFailure: c.QueryParam("continueOnFailure") == "true"}
	if err := h.client.ImportInBackground(c.Request().Context(), jobID, c.Request().Body, opts); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, map[string]string{"jobId": jobID, "status": string(jobs.StatusRunning)})
}

func (h *handlers) startDelete(c echo.Context) error {
	jobID := c.QueryParam("jobId")
	if jobID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "jobId query parameter is required")
	}
	if err := h.client.DeleteAllInBackground(c.Request().Context(), jobID, deleter.Options{}); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, map[string]string{"jobId": jobID, "status": string(jobs.StatusRunning)})
}
