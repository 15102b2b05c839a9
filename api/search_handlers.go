package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/colsearch/services"
)

// SearchHandler runs a text search against one index column.
// Request Body: services.SearchQuery
func (api *API) SearchHandler(c *gin.Context) {
	index := c.Param("index")
	if result := ValidateName("index", index); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	var query services.SearchQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}
	var pageResult *ValidationResult
	query.Page, query.PageSize, pageResult = ValidatePagination(query.Page, query.PageSize)
	if pageResult.HasErrors() {
		SendValidationError(c, pageResult)
		return
	}

	results, err := api.db.Search(index, query)
	if err != nil {
		SendEngineError(c, "search", err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// QueryHandler parses, compiles and executes a query expression over a
// table, optionally with highlighted excerpts.
// Request Body: services.QueryRequest
func (api *API) QueryHandler(c *gin.Context) {
	var req services.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}
	if result := ValidateQueryRequest(&req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	result, err := api.db.Query(c.Request.Context(), req)
	if err != nil {
		SendEngineError(c, "query", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MultiQueryHandler runs several named queries concurrently.
// Request Body: services.MultiQueryRequest
func (api *API) MultiQueryHandler(c *gin.Context) {
	var req services.MultiQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Queries) == 0 {
		result := &ValidationResult{Valid: true}
		result.AddError("queries", "At least one query is required")
		SendValidationError(c, result)
		return
	}
	for i := range req.Queries {
		if result := ValidateQueryRequest(&req.Queries[i].QueryRequest); result.HasErrors() {
			SendValidationError(c, result)
			return
		}
	}

	result, err := api.db.MultiQuery(c.Request.Context(), req)
	if err != nil {
		SendEngineError(c, "multi query", err)
		return
	}
	c.JSON(http.StatusOK, result)
}
