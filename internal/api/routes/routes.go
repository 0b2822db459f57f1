// internal/api/routes/routes.go
package routes

import (
	"time"

	"rental-admin-console/config"
	"rental-admin-console/internal/api/handlers"
	"rental-admin-console/internal/api/middleware"
	"rental-admin-console/internal/apiclient"
	"rental-admin-console/internal/socket"
	"rental-admin-console/internal/wizard"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Backend is everything the admin routes call on the marketplace API.
type Backend interface {
	handlers.VehicleBackend
	handlers.UserBackend
}

// SetupRouter wires handlers onto a gin engine.
func SetupRouter(
	cfg config.Config,
	registry *wizard.Registry,
	backend Backend,
	credentials apiclient.CredentialStore,
	wsHub *socket.Hub,
	logger *zap.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(logger), middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	formHandler := &handlers.FormHandler{Registry: registry, MaxFileBytes: cfg.Upload.MaxFileBytes, Logger: logger}
	vehicleHandler := &handlers.VehicleHandler{Backend: backend, Logger: logger}
	adminHandler := &handlers.AdminHandler{Backend: backend, Credentials: credentials, Logger: logger}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub, Registry: registry, Logger: logger}

	requireCreds := middleware.RequireCredentials(credentials)

	apiV1 := router.Group("/api/v1")
	{
		forms := apiV1.Group("/forms")
		{
			forms.POST("", requireCreds, formHandler.CreateForm)

			session := forms.Group("/:sessionID")
			session.GET("", formHandler.GetForm)
			session.DELETE("", formHandler.CloseForm)
			session.GET("/ws", webSocketHandler.ServeWs)
			session.PATCH("/draft", formHandler.UpdateDraft)
			session.POST("/availability", formHandler.AddUnavailable)
			session.DELETE("/availability", formHandler.RemoveUnavailable)
			session.POST("/next", formHandler.Next)
			session.POST("/prev", formHandler.Prev)
			session.POST("/reset", formHandler.Reset)

			// These reach the backend.
			backed := session.Group("")
			backed.Use(requireCreds)
			{
				backed.POST("/photos/:slot", formHandler.UploadPhoto)
				backed.PUT("/photos/:slot", formHandler.UploadPhoto)
				backed.DELETE("/photos/:slot", formHandler.DeletePhoto)
				backed.POST("/documents/:slot", formHandler.UploadDocument)
				backed.PUT("/documents/:slot", formHandler.UploadDocument)
				backed.DELETE("/documents/:slot", formHandler.DeleteDocument)
				backed.POST("/submit", formHandler.Submit)
			}
		}

		apiV1.GET("/admin/session", adminHandler.GetSession)

		admin := apiV1.Group("/admin")
		admin.Use(requireCreds)
		{
			vehicles := admin.Group("/vehicles")
			{
				vehicles.GET("", vehicleHandler.ListVehicles)
				vehicles.GET("/:id", vehicleHandler.GetVehicle)
				vehicles.POST("/:id/approve", vehicleHandler.ApproveVehicle)
				vehicles.POST("/:id/deny", vehicleHandler.DenyVehicle)
				vehicles.DELETE("/:id", vehicleHandler.DeleteVehicle)
				vehicles.GET("/:id/documents/download", vehicleHandler.DocumentDownloadURL)
				vehicles.POST("/:id/documents/presign", vehicleHandler.PresignDocument)
			}

			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.GET("/bookings", adminHandler.ListBookings)
		}
	}

	return router
}
