package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, app *App) {

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// OAuth popup lands here, outside /api
	r.GET("/auth/google/callback", GoogleCallback(app))

	api := r.Group("/api")
	{
		// GOOGLE DRIVE
		api.GET("/auth/google/url", GoogleAuthURL(app))
		api.GET("/auth/google/status", GoogleStatus(app))
		api.POST("/drive/save", SaveToDrive(app))

		// EVENTS
		api.GET("/events", GetEvents(app))
		api.POST("/events", CreateEvent(app))
		api.POST("/events/delete", DeleteEvent(app))
		api.POST("/events/image", UploadEventImage(app))
	}
}
