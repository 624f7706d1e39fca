// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"quickride/internal/http/handlers"
	"quickride/internal/http/middleware"
	"quickride/internal/modules/chat"
	"quickride/internal/modules/events"
	"quickride/internal/modules/ride"
	"quickride/internal/places"
)

type RouterDeps struct {
	Rides  *ride.Service
	Chat   *chat.Service
	Hub    *events.Hub
	Places places.Suggester
	Log    logrus.FieldLogger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(deps.Log), middleware.Recovery(deps.Log))

	api := r.Group("/api")

	rideHandler := handlers.NewRideHandler(deps.Rides)
	api.POST("/rides", rideHandler.Create)
	api.GET("/rides", rideHandler.ListActive)
	api.GET("/rides/history", rideHandler.ListHistory)
	api.GET("/rides/:id", rideHandler.Get)
	api.POST("/rides/:id/cancel", rideHandler.Cancel)
	api.DELETE("/rides/:id", rideHandler.Cancel)

	chatHandler := handlers.NewChatHandler(deps.Chat, deps.Log)
	api.GET("/rides/:id/messages", chatHandler.List)
	api.POST("/rides/:id/messages", chatHandler.Send)
	api.GET("/rides/:id/chat", chatHandler.Session)

	streamHandler := handlers.NewStreamHandler(deps.Hub, deps.Log)
	api.GET("/stream", streamHandler.Stream)

	api.GET("/format/cpf", handlers.FormatCPF)
	api.GET("/format/phone", handlers.FormatPhone)

	placesHandler := handlers.NewPlacesHandler(deps.Places, deps.Log)
	api.GET("/places/suggest", placesHandler.Suggest)
	api.GET("/places/reverse", placesHandler.Reverse)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return r
}
