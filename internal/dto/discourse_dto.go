package dto

import (
	"trend-finder-be/internal/entity"
)

// AnalyzeRequest is sent as JSON, or as multipart form with an optional "image" file.
type AnalyzeRequest struct {
	Text string `json:"text" form:"text" validate:"max=4000"`
}

type SelectHistoryRequest struct {
	Id string `json:"id" validate:"required"`
}

type HistoryResponse struct {
	Items []entity.HistoryItem `json:"items"`
}

type FavoritesResponse struct {
	Items []entity.FavoriteItem `json:"items"`
}

type ToggleFavoriteResponse struct {
	IsFavorited bool                  `json:"is_favorited"`
	Favorites   []entity.FavoriteItem `json:"favorites"`
}

type SendMessageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

type ChatResponse struct {
	State    string               `json:"state"`
	Messages []entity.ChatMessage `json:"messages"`
	Reply    *entity.ChatMessage  `json:"reply,omitempty"`
}
