package dto

import "trend-finder-be/internal/entity"

const (
	ProviderEmail    = "email"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

type LoginRequest struct {
	Provider string `json:"provider" validate:"required,oneof=email google facebook"`
	Email    string `json:"email" validate:"omitempty,email"`
	Name     string `json:"name" validate:"max=100"`
}

type AuthResponse struct {
	User *entity.User `json:"user"`
}
