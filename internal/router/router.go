package router

import (
	"net/http"

	"subboard/internal/handlers"
	"subboard/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionName = "subboard_session"

type Deps struct {
	Votes         *handlers.VoteHandler
	Stories       *handlers.StoryHandler
	Health        *handlers.HealthHandler
	Users         middleware.UserLookup
	VoteLimiter   *middleware.UserRateLimiter
	Metrics       http.Handler
	SessionSecret string
	Logger        *zap.Logger
}

// New builds the engine with every route registered.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(sessions.Sessions(sessionName, cookie.NewStore([]byte(d.SessionSecret))))
	r.Use(middleware.LoadUser(d.Users))
	r.Use(middleware.RequestLogger(d.Logger))

	RegisterRoutes(r, d)
	return r
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/healthz", d.Health.Health)
	r.GET("/metrics", gin.WrapH(d.Metrics))

	// public routes
	api := r.Group("/api")
	api.GET("/posts", d.Stories.List)        // ranked listing
	api.GET("/posts/:id", d.Stories.Detail) // post with its comment forest

	// session user required
	authorized := api.Group("")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/posts", d.Stories.Create)
		authorized.POST("/posts/:id/comments", d.Stories.CreateComment)
		authorized.DELETE("/comments/:id", d.Stories.DeleteComment)
		authorized.GET("/vote/:type/:id", d.Votes.Show)
		authorized.POST("/vote/:type/:id", middleware.RateLimit(d.VoteLimiter), d.Votes.Vote)
	}
}
