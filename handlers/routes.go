package handlers

import (
	"github.com/gin-gonic/gin"

	"songbook/catalog"
)

// Register mounts the catalogue API, health probe and API documentation.
func Register(r gin.IRouter, svc *catalog.Service) {
	r.GET("/health", HealthCheck(svc))
	r.GET("/openapi.json", OpenAPI)
	r.GET("/docs", Docs)

	songs := r.Group("/api/songs")
	songs.POST("", CreateSong(svc))
	songs.GET("", ListSongs(svc))
	songs.GET("/stats", GetStats(svc))
	songs.GET("/:id", GetSong(svc))
	songs.PUT("/:id", UpdateSong(svc))
	songs.DELETE("/:id", DeleteSong(svc))
}
