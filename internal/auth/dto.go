package auth

import (
	"github.com/google/uuid"

	"github.com/univlive/univlive-backend/pkg/db/models"
	"github.com/univlive/univlive-backend/pkg/enums"
)

// RegisterInput carries educator sign-up fields. Registration always creates
// the owning user and the tenant together.
type RegisterInput struct {
	Email         string
	Password      string
	Name          string
	Phone         *string
	InstituteName string
	Slug          string
}

// LoginInput carries credential fields.
type LoginInput struct {
	Email    string
	Password string
}

// UserInfo is the public projection of a user returned with tokens.
type UserInfo struct {
	ID         uuid.UUID      `json:"id"`
	Email      string         `json:"email"`
	Name       string         `json:"name"`
	Role       enums.UserRole `json:"role"`
	EducatorID *uuid.UUID     `json:"educator_id,omitempty"`
}

// AuthResult is an issued token pair plus the authenticated identity.
type AuthResult struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         UserInfo `json:"user"`
}

func toUserInfo(user *models.User) UserInfo {
	return UserInfo{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Role:       user.Role,
		EducatorID: user.EducatorID,
	}
}
