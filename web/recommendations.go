package web

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/recomendo/recomendo/db"
	"github.com/recomendo/recomendo/domain"
)

func HandleCreateRecommendation(c *gin.Context, database *db.DB) {
	var req struct {
		ToUserId int64 `json:"to_user_id"`
		MediaId  int64 `json:"media_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ToUserId == 0 || req.MediaId == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to_user_id and media_id are required"})
		return
	}

	user := currentUser(c)
	if req.ToUserId == user.Id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot recommend to yourself"})
		return
	}

	err, recipient := database.ReadUserById(req.ToUserId)
	if err != nil || recipient == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipient not found"})
		return
	}
	err, media := database.ReadMediaById(req.MediaId)
	if err != nil || media == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Media not found"})
		return
	}

	err = database.CreateRecommendation(req.MediaId, user.Id, req.ToUserId)
	if err == db.ErrDuplicate {
		c.JSON(http.StatusConflict, gin.H{"error": "Already recommended to this user"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create recommendation"})
		return
	}

	details := domain.RecommendationEventDetails{
		Recipient: domain.BriefUser{Id: recipient.Id, Username: recipient.Username, CreatedAt: recipient.CreatedAt},
	}
	details.Media.Id = media.Id
	details.Media.Name = media.Name
	if err := database.CreateFeedEvent(domain.FeedRecommendation, user.Id, details); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not record event"})
		return
	}

	c.Status(http.StatusCreated)
}

func HandleRecommendations(c *gin.Context, database *db.DB) {
	id, ok := pathUserId(c)
	if !ok {
		return
	}

	direction := c.DefaultQuery("direction", "received")
	if direction != "sent" && direction != "received" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be sent or received"})
		return
	}

	err, recs := database.ReadRecommendations(id, direction)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read recommendations"})
		return
	}
	c.JSON(http.StatusOK, recs)
}

func HandleDeleteRecommendation(c *gin.Context, database *db.DB) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recommendation id"})
		return
	}

	err, deleted := database.DeleteRecommendation(id, currentUser(c).Id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete recommendation"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recommendation not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

const feedLimit = 100

func HandleFeed(c *gin.Context, database *db.DB) {
	err, items := database.ReadFeed(feedLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read feed"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// HandleFindMediaWithAI ranks catalog entries against the free-text
// description by token overlap. A stand-in for a real model backend
// that keeps the endpoint contract exercisable offline.
func HandleFindMediaWithAI(c *gin.Context, database *db.DB) {
	var req struct {
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Description) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "description is required"})
		return
	}

	tokens := strings.Fields(strings.ToLower(req.Description))

	type scored struct {
		media domain.MediaItem
		score int
	}
	seen := map[int64]*scored{}

	for _, token := range tokens {
		if len(token) < 3 {
			continue
		}
		err, matches := database.SearchMedia(token, "", searchLimit)
		if err != nil {
			continue
		}
		for _, m := range *matches {
			if s, ok := seen[m.Id]; ok {
				s.score++
			} else {
				seen[m.Id] = &scored{media: m, score: 1}
			}
		}
	}

	ranked := make([]*scored, 0, len(seen))
	for _, s := range seen {
		ranked = append(ranked, s)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].media.Name < ranked[j].media.Name
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}

	guesses := make([]domain.AIGuess, 0, len(ranked))
	for _, s := range ranked {
		media := s.media
		guesses = append(guesses, domain.AIGuess{
			Name:   media.Name,
			Year:   media.Year,
			Author: media.Author,
			Reason: "matched your description",
			Media:  &media,
		})
	}

	c.JSON(http.StatusOK, guesses)
}
