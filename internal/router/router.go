package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/splitlist/taskboard/api/handler"
)

type Handlers struct {
	Auth       *apiHandler.AuthHandler
	Profile    *apiHandler.ProfileHandler
	Task       *apiHandler.TaskHandler
	Assignment *apiHandler.AssignmentHandler
	Health     *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/refresh", handlers.Auth.Refresh)

	// Protected routes
	r.GET("/api/v1/profile", authMiddleware(handlers.Profile.GetProfile))
	r.GET("/api/v1/profiles", authMiddleware(handlers.Profile.ListProfiles))
	r.GET("/api/v1/categories", authMiddleware(handlers.Profile.ListCategories))

	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/tasks", authMiddleware(handlers.Task.CreateTask))
	r.PATCH("/api/v1/tasks/{id}", authMiddleware(handlers.Task.PatchTask))
	r.DELETE("/api/v1/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))

	r.PUT("/api/v1/tasks/{id}/assignees", authMiddleware(handlers.Assignment.SyncAssignees))
	r.PUT("/api/v1/tasks/{id}/assignments/{assignee}/status", authMiddleware(handlers.Assignment.SetStatus))

	return r
}
