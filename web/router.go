package web

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const activityJSON = "application/activity+json; charset=utf-8"

// NewRouter builds the gin engine serving the federation surface, the admin
// API and the feed.
func NewRouter(app *App) *gin.Engine {
	g := gin.Default()
	g.Use(gzip.Gzip(gzip.DefaultCompression))

	// Global rate limiter: 10 requests per second per IP, burst of 20
	globalLimiter := NewRateLimiter(rate.Limit(10), 20)
	g.Use(RateLimitMiddleware(globalLimiter))

	// Stricter rate limit and a 1MB body cap for the inbox
	apLimiter := NewRateLimiter(rate.Limit(5), 10)
	maxBodySize := MaxBytesMiddleware(1 * 1024 * 1024)

	// isLocalActor guards every /users/:actor route: exactly one actor lives here.
	isLocalActor := func(c *gin.Context) bool {
		if c.Param("actor") != app.Conf.Conf.Account {
			c.Status(http.StatusNotFound)
			return false
		}
		return true
	}

	g.GET("/.well-known/webfinger", func(c *gin.Context) {
		body, ok := GetWebfinger(app, c.Query("resource"))
		if !ok {
			c.Data(http.StatusNotFound, "application/json; charset=utf-8", []byte(GetWebFingerNotFound()))
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
	})

	g.GET("/users/:actor", func(c *gin.Context) {
		if !isLocalActor(c) {
			return
		}
		body, err := GetActor(app)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Data(http.StatusOK, activityJSON, body)
	})

	g.POST("/users/:actor/inbox", RateLimitMiddleware(apLimiter), maxBodySize, func(c *gin.Context) {
		if !isLocalActor(c) {
			return
		}
		HandleInbox(c, app)
	})

	g.GET("/users/:actor/outbox", func(c *gin.Context) {
		if !isLocalActor(c) {
			return
		}
		body, err := GetOutbox(app)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Data(http.StatusOK, activityJSON, body)
	})

	g.GET("/users/:actor/followers", func(c *gin.Context) {
		if !isLocalActor(c) {
			return
		}
		body, err := GetFollowers(app, c.Query("page"))
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Data(http.StatusOK, activityJSON, body)
	})

	g.GET("/users/:actor/following", func(c *gin.Context) {
		if !isLocalActor(c) {
			return
		}
		body, err := GetFollowing(app, c.Query("page"))
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Data(http.StatusOK, activityJSON, body)
	})

	g.GET("/users/:actor/posts/:id", func(c *gin.Context) {
		if !isLocalActor(c) {
			return
		}
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		body, err := GetPost(app, id)
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, activityJSON, body)
	})

	g.GET("/feed", func(c *gin.Context) {
		rss, err := GetRSS(app)
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(rss))
	})

	admin := g.Group("/admin", BasicAuthMiddleware(app.Conf.Conf.AdminUser, app.Conf.Conf.AdminPass))
	admin.POST("/create", maxBodySize, func(c *gin.Context) { HandleCreate(c, app) })
	admin.POST("/follow", func(c *gin.Context) { HandleFollow(c, app) })
	admin.DELETE("/follow", func(c *gin.Context) { HandleUnfollow(c, app) })

	g.POST("/webhook/:secret", maxBodySize, func(c *gin.Context) { HandleWebhook(c, app) })

	return g
}
