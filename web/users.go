package web

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/recomendo/recomendo/db"
	"github.com/recomendo/recomendo/domain"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	avatarDir        = "avatars"
)

// paginate wraps a full user list into the page the client asked for.
func paginate(c *gin.Context, users []domain.User) domain.Paginated[domain.User] {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if limit < 1 || limit > maxPageLimit {
		limit = defaultPageLimit
	}

	total := int64(len(users))
	totalPages := (len(users) + limit - 1) / limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (page - 1) * limit
	if start > len(users) {
		start = len(users)
	}
	end := start + limit
	if end > len(users) {
		end = len(users)
	}

	data := users[start:end]
	if data == nil {
		data = []domain.User{}
	}

	return domain.Paginated[domain.User]{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}

func respondUserList(c *gin.Context, err error, users *[]domain.User) {
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read users"})
		return
	}
	c.JSON(http.StatusOK, paginate(c, *users))
}

func pathUserId(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return 0, false
	}
	return id, true
}

func HandleMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func HandleUpdateMe(c *gin.Context, database *db.DB) {
	var req struct {
		Username string `json:"user_name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Username) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_name is required"})
		return
	}

	user := currentUser(c)
	err := database.UpdateUserName(user.Id, strings.TrimSpace(req.Username))
	if err == db.ErrDuplicate {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already taken"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update user"})
		return
	}

	err, updated := database.ReadUserById(user.Id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read user"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func HandleChangePassword(c *gin.Context, database *db.DB) {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user := currentUser(c)
	err, hash := database.ReadPasswordHashById(user.Id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read user"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.CurrentPassword)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is wrong"})
		return
	}

	if v := validatePassword(req.NewPassword); v != nil {
		c.JSON(http.StatusBadRequest, gin.H{"password_validation": v})
		return
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password"})
		return
	}
	if err := database.UpdatePasswordHash(user.Id, string(newHash)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update password"})
		return
	}

	c.Status(http.StatusNoContent)
}

func HandleDeleteMe(c *gin.Context, database *db.DB) {
	if err := database.DeleteUser(currentUser(c).Id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete user"})
		return
	}
	c.Status(http.StatusNoContent)
}

func HandleUploadAvatar(c *gin.Context, database *db.DB) {
	file, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}

	user := currentUser(c)
	if err := os.MkdirAll(avatarDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store avatar"})
		return
	}

	ext := filepath.Ext(file.Filename)
	name := fmt.Sprintf("%d%s", user.Id, ext)
	if err := c.SaveUploadedFile(file, filepath.Join(avatarDir, name)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store avatar"})
		return
	}

	url := "/avatars/" + name
	if err := database.UpdateAvatarUrl(user.Id, url); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update avatar"})
		return
	}

	err, updated := database.ReadUserById(user.Id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read user"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func HandleDeleteAvatar(c *gin.Context, database *db.DB) {
	user := currentUser(c)
	if user.AvatarUrl != "" {
		os.Remove(filepath.Join(avatarDir, filepath.Base(user.AvatarUrl)))
	}
	if err := database.UpdateAvatarUrl(user.Id, ""); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update avatar"})
		return
	}
	c.Status(http.StatusNoContent)
}

func HandleUserById(c *gin.Context, database *db.DB) {
	id, ok := pathUserId(c)
	if !ok {
		return
	}
	err, user := database.ReadUserById(id)
	if err != nil || user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func HandleFollow(c *gin.Context, database *db.DB) {
	var req struct {
		FollowingId int64 `json:"following_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.FollowingId == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "following_id is required"})
		return
	}

	user := currentUser(c)
	if req.FollowingId == user.Id {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot follow yourself"})
		return
	}

	err, target := database.ReadUserById(req.FollowingId)
	if err != nil || target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	err = database.CreateFollow(user.Id, req.FollowingId)
	if err == db.ErrDuplicate {
		c.JSON(http.StatusConflict, gin.H{"error": "Already following"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not follow"})
		return
	}

	details := domain.FollowEventDetails{
		FollowedUser: domain.BriefUser{Id: target.Id, Username: target.Username, CreatedAt: target.CreatedAt},
	}
	if err := database.CreateFeedEvent(domain.FeedFollow, user.Id, details); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not record event"})
		return
	}

	c.Status(http.StatusCreated)
}

// HandleUnfollow removes the follow edge; the path id is the followed
// user's id, not a follow row id.
func HandleUnfollow(c *gin.Context, database *db.DB) {
	id, ok := pathUserId(c)
	if !ok {
		return
	}
	if err := database.DeleteFollow(currentUser(c).Id, id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not unfollow"})
		return
	}
	c.Status(http.StatusNoContent)
}

func HandleFollowers(c *gin.Context, database *db.DB) {
	id, ok := pathUserId(c)
	if !ok {
		return
	}
	err, users := database.ReadFollowers(id)
	respondUserList(c, err, users)
}

func HandleFollowings(c *gin.Context, database *db.DB) {
	id, ok := pathUserId(c)
	if !ok {
		return
	}
	err, users := database.ReadFollowings(id)
	respondUserList(c, err, users)
}

func HandleFriends(c *gin.Context, database *db.DB) {
	id, ok := pathUserId(c)
	if !ok {
		return
	}
	err, users := database.ReadFriends(id)
	respondUserList(c, err, users)
}

func HandleMyFollowings(c *gin.Context, database *db.DB) {
	err, users := database.ReadFollowings(currentUser(c).Id)
	respondUserList(c, err, users)
}

func HandleMyFriends(c *gin.Context, database *db.DB) {
	err, users := database.ReadFriends(currentUser(c).Id)
	respondUserList(c, err, users)
}

func HandleSuggestedUsers(c *gin.Context, database *db.DB) {
	err, users := database.ReadSuggestedUsers(currentUser(c).Id, maxPageLimit)
	respondUserList(c, err, users)
}

func HandleNewestUsers(c *gin.Context, database *db.DB) {
	err, users := database.ReadNewestUsers(maxPageLimit)
	respondUserList(c, err, users)
}

func HandleTopRecommenders(c *gin.Context, database *db.DB) {
	err, users := database.ReadTopRecommenders(maxPageLimit)
	respondUserList(c, err, users)
}
