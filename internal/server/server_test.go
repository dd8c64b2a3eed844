package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"trend-finder-be/internal/bootstrap"
	"trend-finder-be/internal/config"
	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/pkg/gemini"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeAnalysis = "```json\n" + `{
  "summary": "Opinions are divided.",
  "related_keywords": ["k1", "k2", "k3", "k4", "k5"],
  "sentiment": {
    "score": "positive",
    "details": {"positive_percentage": 60, "negative_percentage": 30, "neutral_percentage": 10},
    "example_quotes": ["love it", "hate it"]
  }
}` + "\n```"

// fakeGemini answers analysis, chat and speech requests without the network.
type fakeGemini struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeGemini) GenerateContent(_ context.Context, _ string, req *gemini.GenerateContentRequest) (*gemini.GenerateContentResponse, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if req.GenerationConfig != nil && len(req.GenerationConfig.ResponseModalities) > 0 {
		pcm := make([]byte, 4800)
		return &gemini.GenerateContentResponse{Candidates: []*gemini.Candidate{{
			Content: &gemini.Content{Parts: []*gemini.Part{{
				InlineData: &gemini.Blob{MimeType: "audio/L16;rate=24000", Data: base64.StdEncoding.EncodeToString(pcm)},
			}}},
		}}}, nil
	}

	text := "fake reply"
	var meta *gemini.GroundingMetadata
	if len(req.Tools) > 0 {
		text = fakeAnalysis
		meta = &gemini.GroundingMetadata{GroundingChunks: []*gemini.GroundingChunk{
			{Web: &gemini.WebChunk{URI: "https://news.example/a", Title: "A"}},
		}}
	}
	return &gemini.GenerateContentResponse{Candidates: []*gemini.Candidate{{
		Content:           gemini.TextContent(gemini.RoleModel, text),
		GroundingMetadata: meta,
	}}}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type harness struct {
	t   *testing.T
	app *fiber.App
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithOrigins(t, "http://front.test")
}

func newHarnessWithOrigins(t *testing.T, origins string) *harness {
	t.Helper()
	cfg := &config.Config{
		App:     config.AppConfig{Environment: "test", FrontendURL: "http://front.test", CorsAllowedOrigins: origins},
		Storage: config.StorageConfig{Driver: "memory", WorkspaceTTL: time.Hour},
		Events:  config.EventsConfig{Bus: "gochannel"},
		Gemini: config.GeminiConfig{
			AnalysisModel: "analysis-model",
			ChatModel:     "chat-model",
			TTSModel:      "tts-model",
			Voice:         "Kore",
		},
		Auth: config.AuthConfig{JWTSecret: "test-secret", ClientTokenTTL: time.Hour},
	}

	nop := logger.NewNopLogger()
	container, err := bootstrap.Build(cfg, &fakeGemini{}, nop, nop)
	require.NoError(t, err)
	t.Cleanup(container.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, container.Start(ctx))

	return &harness{t: t, app: New(cfg, container).GetApp()}
}

func (h *harness) do(method, path, token string, body interface{}) (*http.Response, envelope) {
	h.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		raw, _ := io.ReadAll(resp.Body)
		_ = json.Unmarshal(raw, &env)
	}
	return resp, env
}

func (h *harness) token() string {
	h.t.Helper()
	resp, env := h.do(http.MethodPost, "/api/client", "", nil)
	require.Equal(h.t, http.StatusOK, resp.StatusCode)

	var data struct {
		Token    string `json:"token"`
		ClientID string `json:"client_id"`
	}
	require.NoError(h.t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(h.t, data.Token)
	return data.Token
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

type currentView struct {
	Query  string `json:"query"`
	Result *struct {
		Summary   string `json:"summary"`
		Sentiment struct {
			Score string `json:"score"`
		} `json:"sentiment"`
		Sources []struct {
			Web *struct {
				URI string `json:"uri"`
			} `json:"web"`
		} `json:"sources"`
	} `json:"result"`
	IsFavorited bool `json:"isFavorited"`
}

type itemsView struct {
	Items []struct {
		Id    string `json:"id"`
		Query string `json:"query"`
	} `json:"items"`
}

func TestCorsOrigins(t *testing.T) {
	tests := []struct {
		name            string
		origins         string
		wantOrigin      string
		wantCredentials string
	}{
		{name: "explicit origin", origins: "http://front.test", wantOrigin: "http://front.test", wantCredentials: "true"},
		{name: "wildcard", origins: "*", wantOrigin: "*", wantCredentials: ""},
		{name: "wildcard in list", origins: "http://front.test, *", wantCredentials: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h *harness
			require.NotPanics(t, func() { h = newHarnessWithOrigins(t, tt.origins) })

			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set("Origin", "http://front.test")
			resp, err := h.app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			if tt.wantOrigin != "" {
				assert.Equal(t, tt.wantOrigin, resp.Header.Get("Access-Control-Allow-Origin"))
			}
			assert.Equal(t, tt.wantCredentials, resp.Header.Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestRoutesRequireClientToken(t *testing.T) {
	h := newHarness(t)

	resp, _ := h.do(http.MethodGet, "/api/history", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = h.do(http.MethodGet, "/api/history", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestIssueRenewsExistingClient(t *testing.T) {
	h := newHarness(t)
	token := h.token()

	_, first := h.do(http.MethodGet, "/api/client/snapshot", token, nil)
	_, renewed := h.do(http.MethodPost, "/api/client", token, nil)

	snap := decode[struct {
		ClientID string `json:"clientId"`
	}](t, first)
	again := decode[struct {
		ClientID string `json:"client_id"`
	}](t, renewed)
	assert.Equal(t, snap.ClientID, again.ClientID)
}

func TestAnalysisHistoryAndFavorites(t *testing.T) {
	h := newHarness(t)
	token := h.token()

	resp, env := h.do(http.MethodPost, "/api/analysis", token, map[string]string{"text": "AI regulation"})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)

	current := decode[currentView](t, env)
	assert.Equal(t, "AI regulation", current.Query)
	require.NotNil(t, current.Result)
	assert.Equal(t, "Opinions are divided.", current.Result.Summary)
	assert.Equal(t, "POSITIVE", current.Result.Sentiment.Score)
	require.Len(t, current.Result.Sources, 1)
	assert.Equal(t, "https://news.example/a", current.Result.Sources[0].Web.URI)
	assert.False(t, current.IsFavorited)

	_, env = h.do(http.MethodGet, "/api/history", token, nil)
	history := decode[itemsView](t, env)
	require.Len(t, history.Items, 1)
	assert.Equal(t, "AI regulation", history.Items[0].Query)

	resp, env = h.do(http.MethodPost, "/api/favorites/toggle", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[struct {
		IsFavorited bool `json:"is_favorited"`
	}](t, env).IsFavorited)

	_, env = h.do(http.MethodGet, "/api/favorites", token, nil)
	favorites := decode[itemsView](t, env)
	require.Len(t, favorites.Items, 1)

	resp, env = h.do(http.MethodPost, "/api/favorites/"+favorites.Items[0].Id+"/select", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[currentView](t, env).IsFavorited)

	resp, _ = h.do(http.MethodDelete, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_, env = h.do(http.MethodGet, "/api/history", token, nil)
	assert.Empty(t, decode[itemsView](t, env).Items)
}

func TestAnalysisRejectsEmptyInput(t *testing.T) {
	h := newHarness(t)
	token := h.token()

	resp, env := h.do(http.MethodPost, "/api/analysis", token, map[string]string{"text": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, "אנא ספק טקסט או תמונה לניתוח.", env.Message)
}

func TestChatNeedsAnalysisFirst(t *testing.T) {
	h := newHarness(t)
	token := h.token()

	resp, _ := h.do(http.MethodPost, "/api/chat", token, map[string]string{"message": "hi"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	h.do(http.MethodPost, "/api/analysis", token, map[string]string{"text": "elections"})

	resp, env := h.do(http.MethodPost, "/api/chat", token, map[string]string{"message": "why?"})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)

	chat := decode[struct {
		State    string `json:"state"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
		Reply *struct {
			Content string `json:"content"`
		} `json:"reply"`
	}](t, env)
	assert.Equal(t, "SEEDED", chat.State)
	require.NotNil(t, chat.Reply)
	assert.Equal(t, "fake reply", chat.Reply.Content)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, "user", chat.Messages[0].Role)
	assert.Equal(t, "why?", chat.Messages[0].Content)
}

func TestPreferences(t *testing.T) {
	h := newHarness(t)
	token := h.token()

	_, env := h.do(http.MethodGet, "/api/preferences", token, nil)
	type prefs struct {
		Language     string  `json:"language"`
		FontScale    float64 `json:"fontScale"`
		ReadingSpeed float64 `json:"readingSpeed"`
		Direction    string  `json:"direction"`
		VoiceLocale  string  `json:"voiceLocale"`
	}
	initial := decode[prefs](t, env)
	assert.Equal(t, prefs{Language: "he", FontScale: 1, ReadingSpeed: 1, Direction: "rtl", VoiceLocale: "he-IL"}, initial)

	resp, env := h.do(http.MethodPatch, "/api/preferences", token, map[string]interface{}{"language": "en", "readingSpeed": 1.5})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	updated := decode[prefs](t, env)
	assert.Equal(t, "ltr", updated.Direction)
	assert.Equal(t, "en-US", updated.VoiceLocale)
	assert.Equal(t, 1.5, updated.ReadingSpeed)

	resp, _ = h.do(http.MethodPatch, "/api/preferences", token, map[string]interface{}{"language": "fr"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginSwitchesCollections(t *testing.T) {
	h := newHarness(t)
	token := h.token()

	h.do(http.MethodPost, "/api/analysis", token, map[string]string{"text": "guest topic"})

	resp, env := h.do(http.MethodPost, "/api/auth/login", token, map[string]string{"provider": "google"})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	user := decode[struct {
		User struct {
			Id string `json:"id"`
		} `json:"user"`
	}](t, env)
	assert.Equal(t, "g_123", user.User.Id)

	_, env = h.do(http.MethodGet, "/api/history", token, nil)
	assert.Empty(t, decode[itemsView](t, env).Items)

	_, env = h.do(http.MethodGet, "/api/analysis/current", token, nil)
	assert.Nil(t, decode[currentView](t, env).Result)

	resp, _ = h.do(http.MethodPost, "/api/auth/login", token, map[string]string{"provider": "email"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	h.do(http.MethodPost, "/api/auth/logout", token, nil)
	_, env = h.do(http.MethodGet, "/api/history", token, nil)
	require.Len(t, decode[itemsView](t, env).Items, 1)
}

func TestGoogleOAuthNotConfigured(t *testing.T) {
	h := newHarness(t)
	token := h.token()

	resp, _ := h.do(http.MethodGet, "/api/auth/google?token="+token, "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = h.do(http.MethodGet, "/api/auth/google/callback?code=x&state=y", "", nil)
	assert.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)
	assert.Equal(t, "http://front.test/?login=failed", resp.Header.Get("Location"))
}

func TestBackupExportImport(t *testing.T) {
	h := newHarness(t)
	source := h.token()
	target := h.token()

	h.do(http.MethodPost, "/api/analysis", source, map[string]string{"text": "topic one"})
	h.do(http.MethodPost, "/api/favorites/toggle", source, nil)
	h.do(http.MethodPatch, "/api/preferences", source, map[string]interface{}{"language": "ru"})

	req := httptest.NewRequest(http.MethodGet, "/api/backup/export", nil)
	req.Header.Set("Authorization", "Bearer "+source)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "trend-finder-backup-")
	doc, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodPost, "/api/backup/import", bytes.NewReader(doc))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+target)
	resp, err = h.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, env := h.do(http.MethodGet, "/api/history", target, nil)
	require.Len(t, decode[itemsView](t, env).Items, 1)
	_, env = h.do(http.MethodGet, "/api/favorites", target, nil)
	require.Len(t, decode[itemsView](t, env).Items, 1)
	_, env = h.do(http.MethodGet, "/api/preferences", target, nil)
	assert.Equal(t, "ru", decode[struct {
		Language string `json:"language"`
	}](t, env).Language)

	resp, _ = h.do(http.MethodPost, "/api/backup/import", target, map[string]interface{}{"history": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSpeechAudioDownload(t *testing.T) {
	h := newHarness(t)
	token := h.token()

	req := httptest.NewRequest(http.MethodPost, "/api/speech/audio", strings.NewReader(`{"text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "audio/wav", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Greater(t, len(body), 44)
	assert.Equal(t, "RIFF", string(body[:4]))

	resp, env := h.do(http.MethodPost, "/api/speech/stop", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[struct {
		Stopped bool `json:"stopped"`
	}](t, env).Stopped)
}
