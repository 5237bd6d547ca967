package httpapi

import (
	"log/slog"
	"net/http"

	"talkline/domain"
	"talkline/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Router wires the REST surface: account lifecycle and the user directory.
type Router struct {
	log       *slog.Logger
	auth      services.IAuthService
	directory services.IDirectoryService
	ws        gin.HandlerFunc
}

func NewRouter(log *slog.Logger, auth services.IAuthService,
	directory services.IDirectoryService, ws gin.HandlerFunc) *Router {
	return &Router{log: log, auth: auth, directory: directory, ws: ws}
}

func (r *Router) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
	}))

	api := engine.Group("/api")
	api.POST("/register", r.register)
	api.POST("/login", r.login)
	api.GET("/users", r.listUsers)

	engine.GET("/ws", r.ws)
	return engine
}

func (r *Router) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	token, identity, err := r.auth.Register(req.DisplayName, req.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		Token: string(token),
		User:  domain.User{ID: identity.UserID, DisplayName: identity.DisplayName},
	})
}

func (r *Router) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	token, identity, err := r.auth.Login(req.DisplayName, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, sessionResponse{
		Token: string(token),
		User:  domain.User{ID: identity.UserID, DisplayName: identity.DisplayName},
	})
}

func (r *Router) listUsers(c *gin.Context) {
	users, err := r.directory.List(c.Query("search"))
	if err != nil {
		r.log.Error("Failed to list users", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}
