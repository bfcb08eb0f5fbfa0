// Package api assembles the HTTP front end: gin router, middleware and
// the sizing handlers.
package api

import (
	"net/http"

	"microgrid-sizer/internal/api/handlers"
	"microgrid-sizer/internal/api/middleware"
	"microgrid-sizer/internal/metrics"

	"github.com/gin-gonic/gin"
)

// Options configures NewRouter.
type Options struct {
	PresetDir   string // "" falls back to PRESET_DIR, then ./examples/systems
	StoreLimit  int    // finished searches kept in memory; 0 means the default
	RequestLogs bool
}

// NewRouter builds the router with every API route registered.
func NewRouter(opts Options) *gin.Engine {
	router := gin.New()
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS())
	if opts.RequestLogs {
		router.Use(middleware.Logger())
	}

	presets := handlers.NewPresetHandler(opts.PresetDir)
	simulate := handlers.NewSimulateHandler(presets)
	searches := handlers.NewSearchHandler(presets, handlers.NewSearchStore(opts.StoreLimit))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/presets", presets.ListPresets)
		v1.GET("/policies", handlers.ListPolicies)

		v1.POST("/simulate", simulate.RunSimulation)
		v1.POST("/simulate/compare", simulate.CompareDesigns)
		v1.POST("/profile", simulate.ProfileSeries)

		v1.POST("/search", searches.RunSearch)
		v1.GET("/search/stream", searches.StreamSearch)
		v1.GET("/search/:id", searches.GetSearch)
	}

	return router
}
