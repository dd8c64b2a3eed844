package entity

type Language string

const (
	LanguageHebrew  Language = "he"
	LanguageEnglish Language = "en"
	LanguageRussian Language = "ru"
)

func (l Language) Valid() bool {
	switch l {
	case LanguageHebrew, LanguageEnglish, LanguageRussian:
		return true
	}
	return false
}

type Direction string

const (
	DirectionRTL Direction = "rtl"
	DirectionLTR Direction = "ltr"
)

// HistoryItem timestamps are unix milliseconds, like the exported backup files.
type HistoryItem struct {
	Id        string `json:"id"`
	Query     string `json:"query"`
	Timestamp int64  `json:"timestamp"`
}

type FavoriteItem struct {
	Id        string          `json:"id"`
	Query     string          `json:"query"`
	Result    *AnalysisResult `json:"result"`
	Timestamp int64           `json:"timestamp"`
}

const (
	ChatRoleUser  = "user"
	ChatRoleModel = "model"
)

type ChatMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	IsLoading bool   `json:"isLoading,omitempty"`
}

// User is asserted by the client; nothing verifies it server side unless it came from OAuth.
type User struct {
	Id     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
}

type Preferences struct {
	Language     Language `json:"language"`
	FontScale    float64  `json:"fontScale"`
	ReadingSpeed float64  `json:"readingSpeed"`
}
