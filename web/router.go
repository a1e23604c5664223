package web

import (
	"fmt"
	"log"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/recomendo/recomendo/db"
	"github.com/recomendo/recomendo/util"
	"golang.org/x/time/rate"
)

// Router builds the REST API served to the TUI client.
func Router(conf *util.AppConfig, database *db.DB) *gin.Engine {
	g := gin.Default()
	g.Use(gzip.Gzip(gzip.DefaultCompression))

	// Global rate limiter: 10 requests per second per IP, burst of 20
	globalLimiter := NewRateLimiter(rate.Limit(10), 20)
	g.Use(RateLimitMiddleware(globalLimiter))

	// Max 1MB request body size, avatar uploads excepted
	maxBodySize := MaxBytesMiddleware(1 * 1024 * 1024)

	authed := AuthMiddleware(database)

	// Auth
	g.POST("/login", maxBodySize, func(c *gin.Context) {
		HandleLogin(c, database)
	})
	g.POST("/register", maxBodySize, func(c *gin.Context) {
		HandleRegister(c, database)
	})

	// Identity
	g.GET("/me", authed, HandleMe)
	g.PATCH("/me", authed, maxBodySize, func(c *gin.Context) {
		HandleUpdateMe(c, database)
	})
	g.PUT("/me/password", authed, maxBodySize, func(c *gin.Context) {
		HandleChangePassword(c, database)
	})
	g.DELETE("/me", authed, func(c *gin.Context) {
		HandleDeleteMe(c, database)
	})
	g.POST("/me/avatar", authed, MaxBytesMiddleware(5*1024*1024), func(c *gin.Context) {
		HandleUploadAvatar(c, database)
	})
	g.DELETE("/me/avatar", authed, func(c *gin.Context) {
		HandleDeleteAvatar(c, database)
	})
	g.Static("/avatars", avatarDir)

	// Social graph
	g.GET("/users/:id", authed, func(c *gin.Context) {
		HandleUserById(c, database)
	})
	g.GET("/users/:id/followers", authed, func(c *gin.Context) {
		HandleFollowers(c, database)
	})
	g.GET("/users/:id/followings", authed, func(c *gin.Context) {
		HandleFollowings(c, database)
	})
	g.GET("/users/:id/friends", authed, func(c *gin.Context) {
		HandleFriends(c, database)
	})
	g.GET("/me/followings", authed, func(c *gin.Context) {
		HandleMyFollowings(c, database)
	})
	g.GET("/me/friends", authed, func(c *gin.Context) {
		HandleMyFriends(c, database)
	})
	g.GET("/users/suggested", authed, func(c *gin.Context) {
		HandleSuggestedUsers(c, database)
	})
	g.GET("/users/newest", authed, func(c *gin.Context) {
		HandleNewestUsers(c, database)
	})
	g.GET("/users/top-recommenders", authed, func(c *gin.Context) {
		HandleTopRecommenders(c, database)
	})
	g.POST("/follows", authed, maxBodySize, func(c *gin.Context) {
		HandleFollow(c, database)
	})
	g.DELETE("/follows/:id", authed, func(c *gin.Context) {
		HandleUnfollow(c, database)
	})

	// Media
	g.GET("/media/top", authed, func(c *gin.Context) {
		HandleTopMedia(c, database)
	})
	g.GET("/media", authed, func(c *gin.Context) {
		HandleSearchMedia(c, database)
	})
	g.PUT("/media/:id/rating", authed, maxBodySize, func(c *gin.Context) {
		HandleRateMedia(c, database)
	})
	g.GET("/media/:id/comments", authed, func(c *gin.Context) {
		HandleComments(c, database)
	})
	g.POST("/media/:id/comments", authed, maxBodySize, func(c *gin.Context) {
		HandlePostComment(c, database)
	})

	// Recommendations and feed
	g.POST("/recommendations", authed, maxBodySize, func(c *gin.Context) {
		HandleCreateRecommendation(c, database)
	})
	g.GET("/users/:id/recommendations", authed, func(c *gin.Context) {
		HandleRecommendations(c, database)
	})
	g.DELETE("/me/recommendations/:id", authed, func(c *gin.Context) {
		HandleDeleteRecommendation(c, database)
	})
	g.GET("/feed", authed, func(c *gin.Context) {
		HandleFeed(c, database)
	})
	g.POST("/ai/find-media", authed, maxBodySize, func(c *gin.Context) {
		HandleFindMediaWithAI(c, database)
	})

	// RSS rendition of the feed, no auth so readers can subscribe
	g.GET("/feed.rss", func(c *gin.Context) {
		c.Header("Content-Type", "application/xml; charset=utf-8")
		rss, err := GetRSS(conf, database)
		if err != nil {
			c.Render(404, render.String{Format: ""})
		} else {
			c.Render(200, render.String{Format: rss})
		}
	})

	return g
}

// Serve runs the API server until it fails.
func Serve(conf *util.AppConfig, database *db.DB) error {
	log.Printf("Starting API server on %s:%d", conf.Conf.Host, conf.Conf.HttpPort)
	g := Router(conf, database)
	return g.Run(fmt.Sprintf(":%d", conf.Conf.HttpPort))
}
