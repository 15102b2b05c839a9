package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/colsearch/config"
	"github.com/gcbaptista/colsearch/internal/logging"
	"github.com/gcbaptista/colsearch/internal/metrics"
	"github.com/gcbaptista/colsearch/services"
)

// API holds dependencies for API handlers, primarily the database.
type API struct {
	db     services.Database
	logger *slog.Logger
}

// NewAPI creates a new API handler structure.
func NewAPI(db services.Database) *API {
	return &API{
		db:     db,
		logger: logging.WithComponent("api"),
	}
}

// SetupRoutes defines all the API routes. The Prometheus endpoint is only
// mounted when m is not nil.
func SetupRoutes(router *gin.Engine, db services.Database, m *metrics.Metrics) {
	apiHandler := NewAPI(db)

	router.Use(RequestIDMiddleware(), MetricsMiddleware(m))

	// Health check route
	router.GET("/health", apiHandler.HealthCheckHandler)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	// Job management routes
	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("", apiHandler.ListJobsHandler)
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)
	}

	// Table management routes
	tableRoutes := router.Group("/tables")
	{
		tableRoutes.POST("", apiHandler.CreateTableHandler)
		tableRoutes.GET("", apiHandler.ListTablesHandler)
		tableRoutes.GET("/:table", apiHandler.GetTableHandler)
		tableRoutes.DELETE("/:table", apiHandler.DeleteTableHandler)
		tableRoutes.POST("/:table/columns", apiHandler.CreateColumnHandler)
		tableRoutes.POST("/:table/indexes", apiHandler.CreateIndexHandler)
		tableRoutes.PUT("/:table/records", apiHandler.PutRecordsHandler)
		tableRoutes.DELETE("/:table/records/:id", apiHandler.DeleteRecordHandler)
	}

	// Index column routes; names are "Lexicon.column"
	indexRoutes := router.Group("/indexes")
	{
		indexRoutes.GET("", apiHandler.ListIndexesHandler)
		indexRoutes.GET("/:index/stats", apiHandler.GetIndexStatsHandler)
		indexRoutes.POST("/:index/_search", apiHandler.SearchHandler)
	}

	router.POST("/query", apiHandler.QueryHandler)
	router.POST("/multi_query", apiHandler.MultiQueryHandler)
	router.POST("/reindex/:index", apiHandler.ReindexHandler)
	router.POST("/snapshots", apiHandler.SaveSnapshotHandler)
}

// HealthCheckHandler provides a simple health check endpoint.
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"tables":  len(api.db.ListTables()),
		"indexes": len(api.db.ListIndexColumns()),
	})
}

// CreateTableHandler handles the request to create a new table.
// Request Body: config.TableSettings
func (api *API) CreateTableHandler(c *gin.Context) {
	var settings config.TableSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateSettings("settings", settings.Validate()); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if _, err := api.db.DefineTable(settings); err != nil {
		SendEngineError(c, "create table", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Table '" + settings.Name + "' created successfully"})
}

// ListTablesHandler lists table names.
func (api *API) ListTablesHandler(c *gin.Context) {
	tables := api.db.ListTables()
	c.JSON(http.StatusOK, gin.H{"tables": tables, "total": len(tables)})
}

// GetTableHandler describes one table.
func (api *API) GetTableHandler(c *gin.Context) {
	info, err := api.db.TableInfo(c.Param("table"))
	if err != nil {
		SendEngineError(c, "get table", err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// DeleteTableHandler removes a table and the index columns it holds.
func (api *API) DeleteTableHandler(c *gin.Context) {
	name := c.Param("table")
	if err := api.db.RemoveTable(name); err != nil {
		SendEngineError(c, "delete table", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Table '" + name + "' deleted"})
}

// CreateColumnHandler adds a data column.
// Request Body: config.ColumnSettings
func (api *API) CreateColumnHandler(c *gin.Context) {
	table := c.Param("table")
	var settings config.ColumnSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateSettings("settings", settings.Validate()); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	column, err := api.db.DefineColumn(table, settings)
	if err != nil {
		SendEngineError(c, "create column", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Column '" + column.FullName() + "' created successfully"})
}

// CreateIndexHandler adds an index column to the lexicon table in the path.
// Request Body: config.IndexColumnSettings; lexicon defaults to the path table.
func (api *API) CreateIndexHandler(c *gin.Context) {
	var settings config.IndexColumnSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	lexicon := c.Param("table")
	if settings.Lexicon == "" {
		settings.Lexicon = lexicon
	}
	if settings.Lexicon != lexicon {
		result := &ValidationResult{Valid: true}
		result.AddError("lexicon", fmt.Sprintf("Lexicon '%s' does not match table '%s'", settings.Lexicon, lexicon))
		SendValidationError(c, result)
		return
	}
	if result := ValidateIndexSettings(&settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	column, err := api.db.DefineIndexColumn(settings)
	if err != nil {
		SendEngineError(c, "create index", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Index '" + column.Name() + "' created successfully",
		"stats":   column.Stats(),
	})
}

// ListIndexesHandler lists index column names.
func (api *API) ListIndexesHandler(c *gin.Context) {
	indexes := api.db.ListIndexColumns()
	c.JSON(http.StatusOK, gin.H{"indexes": indexes, "total": len(indexes)})
}

// GetIndexStatsHandler returns term and posting counts of an index.
func (api *API) GetIndexStatsHandler(c *gin.Context) {
	stats, err := api.db.IndexStats(c.Param("index"))
	if err != nil {
		SendEngineError(c, "get index stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// PutRecordsHandler inserts or updates records.
// Request Body: a services.RecordInput object or an array of them.
func (api *API) PutRecordsHandler(c *gin.Context) {
	table := c.Param("table")

	body, err := c.GetRawData()
	if err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, "Failed to read request body: "+err.Error())
		return
	}

	var records []services.RecordInput
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &records)
	} else {
		var record services.RecordInput
		err = json.Unmarshal(trimmed, &record)
		records = []services.RecordInput{record}
	}
	if err != nil {
		SendInvalidJSONError(c, err)
		return
	}
	if result := ValidateRecords(records); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	ids, err := api.db.PutRecords(table, records)
	if err != nil {
		SendEngineError(c, "write records", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%d record(s) written to table '%s'", len(ids), table),
		"ids":     ids,
	})
}

// DeleteRecordHandler deletes a record by key, or by id for array tables.
func (api *API) DeleteRecordHandler(c *gin.Context) {
	table := c.Param("table")
	ref := c.Param("id")
	if result := ValidateName("id", ref); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	if err := api.db.DeleteRecord(table, ref); err != nil {
		SendEngineError(c, "delete record", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Record '" + ref + "' deleted from table '" + table + "'"})
}
