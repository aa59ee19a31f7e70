package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"erp_sales/internal/gateway"
	"erp_sales/internal/logging"
	"erp_sales/internal/sales"
	"erp_sales/internal/session"
)

// Deps are the components the HTTP layer drives.
type Deps struct {
	Gateway gateway.Caller
	Session *session.Store
	Sales   *sales.Service
	Form    *sales.Form
	Logger  *zap.Logger
}

// InitRoutes registers the front-end endpoints on the given Gin engine.
// Sales screens and their JSON endpoints require a logged-in user.
func InitRoutes(e *gin.Engine, d Deps) {
	h := NewERPHandler(d.Gateway, d.Session, d.Sales, d.Form, logging.OrNop(d.Logger))

	e.SetHTMLTemplate(templates)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	e.GET("/", h.handleHome)
	e.GET("/login", h.handleLoginPage)
	e.GET("/ventas", h.requireSession(true), h.handleDashboardPage)

	api := e.Group("/api")
	api.GET("/status", h.handleStatus)
	api.POST("/login", h.handleLogin)
	api.POST("/logout", h.handleLogout)
	api.GET("/session", h.handleSession)

	ventas := api.Group("/ventas", h.requireSession(false))
	ventas.GET("/reporte", h.handleDailyReport)
	ventas.GET("/tickets/:id", h.handleTicketDetail)

	nueva := ventas.Group("/nueva")
	nueva.POST("", h.handleOpenForm)
	nueva.GET("", h.handleGetForm)
	nueva.PATCH("", h.handleUpdateFields)
	nueva.DELETE("", h.handleCloseForm)
	nueva.POST("/lineas", h.handleAddLine)
	nueva.PATCH("/lineas/:id", h.handleEditLine)
	nueva.DELETE("/lineas/:id", h.handleRemoveLine)
	nueva.POST("/guardar", h.handleSubmit)
}
