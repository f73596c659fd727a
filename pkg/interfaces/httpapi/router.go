package httpapi

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with every API route registered.
func NewRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://127.0.0.1:3000",
			"http://127.0.0.1:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	{
		api.GET("/generators", h.ListGenerators)
		api.PUT("/generators/:id", h.PutGenerator)
		api.DELETE("/generators/:id", h.DeleteGenerator)

		api.GET("/hospitals", h.ListHospitals)
		api.PUT("/hospitals/:id", h.PutHospital)
		api.DELETE("/hospitals/:id", h.DeleteHospital)

		api.GET("/orders", h.ListOrders)
		api.POST("/orders", h.AddOrder)
		api.POST("/orders/check", h.CheckOrder)
		api.PUT("/orders/:id", h.UpdateOrder)
		api.DELETE("/orders/:id", h.DeleteOrder)
		api.GET("/orders/:id/availability", h.OrderAvailability)

		api.GET("/future-orders", h.ListFutureOrders)
		api.POST("/future-orders", h.AddFutureOrder)
		api.DELETE("/future-orders/:id", h.DeleteFutureOrder)
		api.POST("/future-orders/:id/promote", h.PromoteFutureOrder)

		api.POST("/rescan", h.Rescan)
		api.POST("/simulate", h.Simulate)
		api.POST("/simulate/future", h.SimulateFuture)

		api.GET("/bundle", h.ExportBundle)
		api.POST("/bundle", h.ImportBundle)

		api.GET("/events", h.ListEvents)
	}

	return r
}
