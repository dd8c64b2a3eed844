package dto

type UpdatePreferencesRequest struct {
	Language     *string  `json:"language" validate:"omitempty,oneof=he en ru"`
	FontScale    *float64 `json:"fontScale" validate:"omitempty,gt=0"`
	ReadingSpeed *float64 `json:"readingSpeed" validate:"omitempty,gt=0"`
}
