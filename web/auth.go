package web

import (
	"net/http"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/recomendo/recomendo/db"
	"github.com/recomendo/recomendo/domain"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"user_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// validatePassword checks the password rules and returns the failed ones,
// or nil when all rules pass.
func validatePassword(password string) *domain.PasswordValidationError {
	v := domain.PasswordValidationError{Length: len(password) < 8}
	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	v.HasUpper = !hasUpper
	v.HasLower = !hasLower
	v.HasNumber = !hasNumber
	v.HasSpecial = !hasSpecial

	if v.Length || v.HasUpper || v.HasLower || v.HasNumber || v.HasSpecial {
		return &v
	}
	return nil
}

func HandleRegister(c *gin.Context, database *db.DB) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Username == "" || req.Email == "" || !strings.Contains(req.Email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and valid email are required"})
		return
	}

	if v := validatePassword(req.Password); v != nil {
		c.JSON(http.StatusBadRequest, gin.H{"password_validation": v})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not hash password"})
		return
	}

	err, user := database.CreateUser(req.Username, req.Email, string(hash))
	if err == db.ErrDuplicate {
		c.JSON(http.StatusConflict, gin.H{"error": "Username or email already taken"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create user"})
		return
	}

	c.JSON(http.StatusCreated, user)
}

func HandleLogin(c *gin.Context, database *db.DB) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	err, auth := database.ReadUserAuthByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || auth == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(auth.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token := uuid.NewString()
	if err := database.CreateToken(token, auth.Id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create session"})
		return
	}

	c.JSON(http.StatusOK, domain.TokenResponse{Token: token})
}
