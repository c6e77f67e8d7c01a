package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/insights_backend/config"
	"github.com/mmdatafocus/insights_backend/datastore"
	"github.com/mmdatafocus/insights_backend/middlewares"
	"github.com/mmdatafocus/insights_backend/models"
	"github.com/mmdatafocus/insights_backend/utils"
	"github.com/mmdatafocus/insights_backend/workflow"
)

const moduleName = "server"

// Cached envelopes expire on their own; keys also embed the snapshot load
// time, so a reload invalidates them immediately.
const envelopeCacheTTL = 5 * time.Minute

var (
	store    *datastore.Store
	recorder = workflow.NewRecorder()
)

func main() {
	logger := config.GetLogger()

	var loader datastore.Loader
	if csvDir := os.Getenv("SNAPSHOT_CSV_DIR"); csvDir != "" {
		loader = datastore.LoadFromCSVDir(csvDir)
		config.LogInfo(logger, moduleName, "main", "loading snapshots from CSV dir "+csvDir)
	} else {
		config.ConnectDatabaseWithRetry()
		loader = datastore.LoadFromDB(config.GetDB())
	}
	if os.Getenv("REDIS_ADDRESS") != "" {
		config.ConnectRedisWithRetry()
	}

	store = datastore.NewStore(loader)
	if _, err := store.Reload(context.Background()); err != nil {
		config.LogError(logger, moduleName, "main", "initial snapshot load", nil, err)
	}

	r := gin.Default()
	r.Use(cors.Default())
	r.Use(middlewares.CorrelationMiddleware())

	r.POST("/objective/combos", objectiveHandler("combos", workflow.RecommendCombos))
	r.POST("/objective/forecast", objectiveHandler("forecast", workflow.ForecastDemand))
	r.POST("/objective/staffing", objectiveHandler("staffing", workflow.EstimateStaffing))
	r.POST("/objective/staffing/benchmark", objectiveHandler("staffing_benchmark", workflow.RankUnderstaffedBranches))
	r.POST("/objective/staffing/shift-lengths", objectiveHandler("shift_lengths", workflow.SummarizeShiftLengths))
	r.POST("/objective/expansion", objectiveHandler("expansion", workflow.ScoreExpansion))
	r.POST("/objective/growth", objectiveHandler("growth", workflow.BuildGrowthStrategy))
	r.GET("/activity", activityHandler)
	r.POST("/snapshot/reload", reloadHandler)
	r.GET("/healthz", healthHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		config.LogError(logger, moduleName, "main", "gin.Run", nil, err)
		os.Exit(1)
	}
}

// objectiveHandler wraps one engine call: bind, cache lookup, run, record,
// cache fill, respond. An empty body binds to the request type's defaults.
func objectiveHandler[R any](objective string, run func(*datastore.Snapshot, *R) (*models.Envelope, error)) gin.HandlerFunc {
	logger := config.GetLogger()
	return func(c *gin.Context) {
		var req R
		if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request body: " + err.Error()})
			return
		}

		snap := store.Current()
		cacheKey := envelopeCacheKey(objective, snap, req)
		var cached models.Envelope
		if hit, err := config.GetRedisObject(cacheKey, &cached); err != nil {
			config.LogError(logger, moduleName, "objectiveHandler", "cache lookup "+objective, nil, err)
		} else if hit {
			c.JSON(http.StatusOK, cached)
			return
		}

		env, err := run(snap, &req)
		if err != nil {
			respondEngineError(c, objective, req, err)
			return
		}
		recorder.Record(c.Request.Context(), objective, req, env)
		if err := config.SetRedisObject(cacheKey, env, envelopeCacheTTL); err != nil {
			config.LogError(logger, moduleName, "objectiveHandler", "cache fill "+objective, nil, err)
		}
		c.JSON(http.StatusOK, env)
	}
}

func respondEngineError(c *gin.Context, objective string, req any, err error) {
	var validationErr *utils.ValidationError
	var insufficientErr *utils.InsufficientDataError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message, "fields": validationErr.Fields})
	case utils.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &insufficientErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		config.LogError(config.GetLogger(), moduleName, "respondEngineError", objective, req, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func envelopeCacheKey(objective string, snap *datastore.Snapshot, req any) string {
	raw, _ := json.Marshal(req)
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("insights:env:%s:%d:%s", objective, snap.LoadedAt.UnixNano(), hex.EncodeToString(sum[:8]))
}

func activityHandler(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"events": recorder.List(limit)})
}

func reloadHandler(c *gin.Context) {
	snap, err := store.Reload(c.Request.Context())
	if err != nil {
		config.LogError(config.GetLogger(), moduleName, "reloadHandler", "store.Reload", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot reload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"loaded_at":    snap.LoadedAt,
		"source":       snap.Source,
		"branches":     snap.Branches(),
		"transactions": len(snap.Transactions),
		"sales_rows":   len(snap.Sales),
		"punches":      len(snap.Punches),
	})
}

func healthHandler(c *gin.Context) {
	snap := store.Current()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"loaded_at": snap.LoadedAt,
		"source":    snap.Source,
	})
}
