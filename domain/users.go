package domain

import (
	"fmt"
	"time"
)

type User struct {
	Id        int64     `json:"user_id"`
	Username  string    `json:"user_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	AvatarUrl string    `json:"avatar_url,omitempty"`
}

func (u *User) ToString() string {
	return fmt.Sprintf("\n\tId: %d \n\tUsername: %s \n\tEmail: %s \n\tCreatedAt: %s)", u.Id, u.Username, u.Email, u.CreatedAt)
}

// BriefUser is the reduced shape embedded in recommendation and feed payloads.
type BriefUser struct {
	Id        int64     `json:"user_id"`
	Username  string    `json:"user_name"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// PasswordValidationError mirrors the structured 4xx body returned by the
// register and change-password endpoints. Each flag marks a FAILED rule.
type PasswordValidationError struct {
	Length     bool `json:"length"`
	HasUpper   bool `json:"has_upper"`
	HasLower   bool `json:"has_lower"`
	HasNumber  bool `json:"has_number"`
	HasSpecial bool `json:"has_special"`
}

func (p *PasswordValidationError) Messages() []string {
	var msgs []string
	if p.Length {
		msgs = append(msgs, "at least 8 characters")
	}
	if p.HasUpper {
		msgs = append(msgs, "an uppercase letter")
	}
	if p.HasLower {
		msgs = append(msgs, "a lowercase letter")
	}
	if p.HasNumber {
		msgs = append(msgs, "a digit")
	}
	if p.HasSpecial {
		msgs = append(msgs, "a special character (!@#...)")
	}
	return msgs
}

// Paginated is the list envelope the backend wraps user collections in.
type Paginated[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}
