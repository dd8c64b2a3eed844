package dto

type ImportResponse struct {
	Message string `json:"message"`
}
