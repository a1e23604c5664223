package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/recomendo/recomendo/db"
)

const searchLimit = 50

func pathMediaId(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid media id"})
		return 0, false
	}
	return id, true
}

func HandleTopMedia(c *gin.Context, database *db.DB) {
	err, items := database.ReadTopMedia(searchLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read media"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func HandleSearchMedia(c *gin.Context, database *db.DB) {
	name := strings.TrimSpace(c.Query("name"))
	itemType := c.Query("type")

	err, items := database.SearchMedia(name, itemType, searchLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not search media"})
		return
	}
	c.JSON(http.StatusOK, items)
}

func HandleRateMedia(c *gin.Context, database *db.DB) {
	id, ok := pathMediaId(c)
	if !ok {
		return
	}

	var req struct {
		Score int `json:"score"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Score < 1 || req.Score > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "score must be between 1 and 5"})
		return
	}

	err, media := database.ReadMediaById(id)
	if err != nil || media == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}

	if err := database.UpsertRating(id, currentUser(c).Id, req.Score); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save rating"})
		return
	}

	// respond with fresh aggregates so the client never computes them
	err, updated := database.ReadMediaById(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read media"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func HandleComments(c *gin.Context, database *db.DB) {
	id, ok := pathMediaId(c)
	if !ok {
		return
	}
	err, comments := database.ReadComments(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read comments"})
		return
	}
	c.JSON(http.StatusOK, comments)
}

func HandlePostComment(c *gin.Context, database *db.DB) {
	id, ok := pathMediaId(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	err, media := database.ReadMediaById(id)
	if err != nil || media == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}

	err, comment := database.CreateComment(id, currentUser(c).Id, strings.TrimSpace(req.Content))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create comment"})
		return
	}
	c.JSON(http.StatusCreated, comment)
}
