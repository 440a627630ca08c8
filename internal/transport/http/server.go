package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mkorobov/roomcast-server/internal/auth"
	"github.com/mkorobov/roomcast-server/internal/config"
	"github.com/mkorobov/roomcast-server/internal/core"
	"github.com/mkorobov/roomcast-server/internal/store"
)

// NewServer builds the HTTP server with the REST API and the WebSocket
// endpoint.
func NewServer(
	hub *core.Hub,
	pipeline *core.Pipeline,
	st store.Store,
	authService *auth.Service,
	cfg config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(hub, pipeline, st, authService, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter wires all routes into a gin engine. Split out from NewServer so
// tests can drive the full routing table through httptest.
func NewRouter(
	hub *core.Hub,
	pipeline *core.Pipeline,
	st store.Store,
	authService *auth.Service,
	logger *zerolog.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(logger))

	messages := NewMessageHandlers(pipeline, st, logger)
	rooms := NewRoomHandlers(st, logger)
	users := NewUserHandlers(authService, logger)
	admin := NewAdminHandlers(st, hub, logger)
	roles := NewRoleHandlers(st, logger)

	r.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})
	r.GET("/ws", gin.WrapH(NewWSHandler(hub, logger)))

	r.POST("/user/new", users.Register)
	r.POST("/user/login", users.Login)
	r.POST("/user/verify", users.Verify)

	authed := r.Group("/", AuthMiddleware(authService, logger))
	{
		authed.POST("/messages", messages.PostMessage)
		authed.GET("/rooms/:roomId/messages", messages.GetRoomMessages)

		authed.POST("/room", rooms.CreateRoom)
		authed.GET("/rooms", rooms.ListRooms)
		authed.GET("/rooms/:roomId", rooms.GetRoom)
		authed.POST("/rooms/:roomId/members", rooms.AddMember)
		authed.GET("/rooms/:roomId/members", rooms.ListMembers)
		authed.DELETE("/rooms/:roomId/members/:userId", rooms.RemoveMember)

		authed.GET("/users/:userId/roles", roles.ListUserRoles)
	}

	adminGroup := r.Group("/", AdminMiddleware(authService, logger))
	{
		adminGroup.GET("/admin/users", admin.ListUsers)
		adminGroup.DELETE("/admin/users/:userId", admin.DeleteUser)
		adminGroup.POST("/admin/users/:userId/promoteadmin", admin.PromoteAdmin)
		adminGroup.POST("/admin/users/:userId/demoteadmin", admin.DemoteAdmin)
		adminGroup.GET("/admin/statistics", admin.Statistics)
		adminGroup.GET("/admin/statistics/monthly-users", admin.MonthlyUsers)

		adminGroup.POST("/roles", roles.CreateRole)
		adminGroup.GET("/roles", roles.ListRoles)
		adminGroup.POST("/users/:userId/roles/:roleId", roles.AssignRole)
		adminGroup.PUT("/users/:userId/roles/:roleId", roles.SetSoleRole)
		adminGroup.DELETE("/users/:userId/roles/:roleId", roles.RemoveRole)
	}

	return r
}
