// Package workspace is the per-device session object. It owns the identity,
// collections, preferences, current result, chat and speech of one client and
// serializes their transitions. Remote calls run without holding the lock; a
// generation counter drops results that a newer request has superseded.
package workspace

import (
	"context"
	"io"
	"strings"
	"sync"

	"trend-finder-be/internal/constant"
	"trend-finder-be/internal/entity"
	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/internal/repository/kv"
	"trend-finder-be/pkg/analysis"
	"trend-finder-be/pkg/apperr"
	"trend-finder-be/pkg/audio"
	"trend-finder-be/pkg/conversation"
	"trend-finder-be/pkg/events"
	"trend-finder-be/pkg/i18n"
	"trend-finder-be/pkg/preference"
	"trend-finder-be/pkg/session"
)

type Analyzer interface {
	Analyze(ctx context.Context, text string, image *analysis.Image, lang entity.Language) (*entity.AnalysisResult, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Dependencies are shared by every workspace. Store is the device-scoped storage.
type Dependencies struct {
	Store       kv.Store
	Analyzer    Analyzer
	ChatFactory conversation.ChatFactory
	Synthesizer Synthesizer
	Notifier    *events.Notifier
	Logger      logger.ILogger
	PlayerOpts  []audio.Option
}

type Current struct {
	Query       string                 `json:"query"`
	Result      *entity.AnalysisResult `json:"result"`
	Loading     bool                   `json:"loading"`
	Error       string                 `json:"error,omitempty"`
	IsFavorited bool                   `json:"isFavorited"`
}

type Workspace struct {
	clientID string

	mu         sync.Mutex
	generation uint64
	current    Current
	hasImage   bool

	speechMu  sync.Mutex
	speechGen uint64

	session  *session.Store
	prefs    *preference.Store
	chat     *conversation.Controller
	player   *audio.Player
	analyzer Analyzer
	synth    Synthesizer
	notifier *events.Notifier
	logger   logger.ILogger
}

func New(ctx context.Context, clientID string, deps Dependencies) *Workspace {
	w := &Workspace{
		clientID: clientID,
		analyzer: deps.Analyzer,
		synth:    deps.Synthesizer,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		player:   audio.NewPlayer(deps.Logger, deps.PlayerOpts...),
	}

	w.session = session.NewStore(deps.Store, deps.Logger)
	w.session.Open(ctx)

	w.prefs = preference.NewStore(deps.Store, deps.Logger, func(ctx context.Context, lang entity.Language, dir entity.Direction) {
		w.emit(ctx, events.DirectionChanged, map[string]interface{}{
			"language":  string(lang),
			"direction": string(dir),
		})
	})

	w.chat = conversation.NewController(deps.ChatFactory, deps.Logger)
	w.chat.SetObserver(func(transcript []entity.ChatMessage) {
		w.emit(context.Background(), events.ChatUpdated, map[string]interface{}{
			"transcript": transcript,
		})
	})

	return w
}

func (w *Workspace) ClientID() string {
	return w.clientID
}

// Analyze runs a new analysis. It clears the previous result, error and chat
// before the remote call; if another request starts meanwhile, this one ends
// with a Conflict and its result is dropped.
func (w *Workspace) Analyze(ctx context.Context, text string, image *analysis.Image) (Current, error) {
	lang := w.prefs.Get(ctx).Language
	text = strings.TrimSpace(text)

	if text == "" && image == nil {
		err := apperr.New(apperr.KindInputValidation, "workspace.analyze", i18n.T(lang, i18n.MsgInputEmpty))
		w.mu.Lock()
		w.current.Error = err.Message
		w.mu.Unlock()
		return Current{}, err
	}

	display := text
	if display == "" {
		display = constant.ImageOnlyQuery
	}

	w.mu.Lock()
	w.generation++
	gen := w.generation
	w.current = Current{Query: display, Loading: true}
	w.hasImage = image != nil
	w.chat.Reset()
	w.mu.Unlock()

	result, err := w.analyzer.Analyze(ctx, text, image, lang)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.generation != gen {
		return Current{}, apperr.New(apperr.KindConflict, "workspace.analyze", "superseded by a newer request")
	}

	w.current.Loading = false
	if err != nil {
		w.current.Error = apperr.MessageOf(err)
		return Current{}, err
	}

	w.current.Result = result
	w.session.AppendHistory(ctx, entity.HistoryItem{Query: display})

	if err := w.chat.Seed(conversation.Seed{
		Query:    text,
		HasImage: image != nil,
		Result:   result.Clone(),
		Language: lang,
	}); err != nil {
		w.logger.Warn("WORKSPACE", "Chat unavailable for this analysis", map[string]interface{}{
			"client_id": w.clientID,
			"error":     err.Error(),
		})
	}

	w.emit(ctx, events.AnalysisCompleted, map[string]interface{}{
		"query": display,
		"score": string(result.Sentiment.Score),
	})
	w.emit(ctx, events.HistoryUpdated, map[string]interface{}{
		"count": len(w.session.History()),
	})

	return w.currentLocked(), nil
}

// SelectHistory re-runs the analysis for a history entry.
func (w *Workspace) SelectHistory(ctx context.Context, id string) (Current, error) {
	for _, h := range w.session.History() {
		if h.Id == id {
			return w.Analyze(ctx, h.Query, nil)
		}
	}
	return Current{}, apperr.New(apperr.KindInputValidation, "workspace.selectHistory", "history item not found")
}

// SelectFavorite shows a saved result and seeds a new chat with it. Any
// analysis still in flight is superseded.
func (w *Workspace) SelectFavorite(ctx context.Context, id string) (Current, error) {
	fav, ok := w.session.FindFavorite(id)
	if !ok {
		return Current{}, apperr.New(apperr.KindInputValidation, "workspace.selectFavorite", "favorite not found")
	}
	lang := w.prefs.Get(ctx).Language

	w.mu.Lock()
	defer w.mu.Unlock()

	w.generation++
	w.current = Current{Query: fav.Query, Result: fav.Result}
	w.hasImage = false

	if err := w.chat.Seed(conversation.Seed{
		Query:        fav.Query,
		FromFavorite: true,
		Result:       fav.Result.Clone(),
		Language:     lang,
	}); err != nil {
		w.logger.Warn("WORKSPACE", "Chat unavailable for favorite", map[string]interface{}{
			"client_id": w.clientID,
			"error":     err.Error(),
		})
	}

	return w.currentLocked(), nil
}

func (w *Workspace) Current() Current {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentLocked()
}

func (w *Workspace) currentLocked() Current {
	c := w.current
	c.Result = c.Result.Clone()
	c.IsFavorited = c.Result != nil && w.session.IsFavorited(c.Query, c.Result)
	return c
}

func (w *Workspace) History() []entity.HistoryItem {
	return w.session.History()
}

func (w *Workspace) Favorites() []entity.FavoriteItem {
	return w.session.Favorites()
}

// ToggleFavorite saves or removes the current result.
func (w *Workspace) ToggleFavorite(ctx context.Context) (bool, error) {
	w.mu.Lock()
	if w.current.Result == nil || w.current.Loading {
		w.mu.Unlock()
		return false, apperr.New(apperr.KindInputValidation, "workspace.toggleFavorite", "no result to favorite")
	}
	query := w.current.Query
	if query == "" {
		query = constant.ImageOnlyQuery
	}
	favorited := w.session.ToggleFavorite(ctx, query, w.current.Result)
	w.mu.Unlock()

	w.emit(ctx, events.FavoritesUpdated, map[string]interface{}{
		"count":     len(w.session.Favorites()),
		"favorited": favorited,
	})
	return favorited, nil
}

func (w *Workspace) ClearHistory(ctx context.Context) {
	w.session.ClearHistory(ctx)
	w.emit(ctx, events.HistoryUpdated, map[string]interface{}{"count": 0})
}

func (w *Workspace) ClearFavorites(ctx context.Context) {
	w.session.ClearFavorites(ctx)
	w.emit(ctx, events.FavoritesUpdated, map[string]interface{}{"count": 0})
}

func (w *Workspace) SendMessage(ctx context.Context, text string) (entity.ChatMessage, error) {
	return w.chat.Send(ctx, text)
}

func (w *Workspace) Transcript() []entity.ChatMessage {
	return w.chat.Transcript()
}

func (w *Workspace) ChatState() conversation.State {
	return w.chat.State()
}

func (w *Workspace) Identity() *entity.User {
	return w.session.Identity()
}

// Login switches to user's namespace. The current result and chat are discarded.
func (w *Workspace) Login(ctx context.Context, user *entity.User) {
	w.switchIdentity(ctx, user)
}

func (w *Workspace) Logout(ctx context.Context) {
	w.switchIdentity(ctx, nil)
}

func (w *Workspace) switchIdentity(ctx context.Context, user *entity.User) {
	w.mu.Lock()
	w.generation++
	w.current = Current{}
	w.hasImage = false
	w.chat.Reset()
	w.session.SetIdentity(ctx, user)
	w.mu.Unlock()

	data := map[string]interface{}{"signed_in": user != nil}
	if user != nil {
		data["user_id"] = user.Id
	}
	w.emit(ctx, events.IdentityChanged, data)
	w.emit(ctx, events.HistoryUpdated, map[string]interface{}{"count": len(w.session.History())})
	w.emit(ctx, events.FavoritesUpdated, map[string]interface{}{"count": len(w.session.Favorites())})
}

type PreferencesView struct {
	entity.Preferences
	Direction   entity.Direction `json:"direction"`
	VoiceLocale string           `json:"voiceLocale"`
}

func viewOf(p entity.Preferences) PreferencesView {
	return PreferencesView{
		Preferences: p,
		Direction:   i18n.DirectionOf(p.Language),
		VoiceLocale: i18n.VoiceLocale(p.Language),
	}
}

func (w *Workspace) Preferences(ctx context.Context) PreferencesView {
	return viewOf(w.prefs.Get(ctx))
}

func (w *Workspace) UpdatePreferences(ctx context.Context, patch preference.Patch) (PreferencesView, error) {
	p, err := w.prefs.Set(ctx, patch)
	if err != nil {
		return PreferencesView{}, err
	}
	return viewOf(p), nil
}

// prepareSpeech synthesizes text. It fails with Conflict when a newer speech
// request or a stop arrived while synthesis was running.
func (w *Workspace) prepareSpeech(ctx context.Context, text string) (*audio.Buffer, float64, error) {
	lang := w.prefs.Get(ctx).Language

	w.speechMu.Lock()
	w.speechGen++
	gen := w.speechGen
	w.speechMu.Unlock()

	pcm, err := w.synth.Synthesize(ctx, text)
	if err != nil {
		if apperr.IsKind(err, apperr.KindInputValidation) {
			return nil, 0, err
		}
		return nil, 0, apperr.WithMessage(err, i18n.T(lang, i18n.MsgSpeechError))
	}

	w.speechMu.Lock()
	stale := w.speechGen != gen
	w.speechMu.Unlock()
	if stale {
		return nil, 0, apperr.New(apperr.KindConflict, "workspace.speak", "superseded by a newer speech request")
	}

	return audio.DecodePCM16(pcm), w.prefs.Get(ctx).ReadingSpeed, nil
}

// Speak synthesizes text and plays it into sink at the reading speed,
// replacing any active playback. Playback outlives ctx; use StopSpeech.
func (w *Workspace) Speak(ctx context.Context, text string, sink audio.Sink) (*audio.Playback, error) {
	buf, rate, err := w.prepareSpeech(ctx, text)
	if err != nil {
		sink.Close(audio.ReasonFailed)
		return nil, err
	}
	return w.player.Play(context.Background(), buf, rate, sink)
}

// SynthesizeWAV writes the spoken text as a WAV file at the reading speed.
func (w *Workspace) SynthesizeWAV(ctx context.Context, text string, out io.Writer) error {
	buf, rate, err := w.prepareSpeech(ctx, text)
	if err != nil {
		return err
	}
	return audio.EncodeWAV(out, buf, rate)
}

func (w *Workspace) StopSpeech() bool {
	w.speechMu.Lock()
	w.speechGen++
	w.speechMu.Unlock()
	return w.player.Stop()
}

func (w *Workspace) Speaking() bool {
	return w.player.Active()
}

type Snapshot struct {
	ClientID    string                `json:"clientId"`
	User        *entity.User          `json:"user"`
	Preferences PreferencesView       `json:"preferences"`
	Current     Current               `json:"current"`
	History     []entity.HistoryItem  `json:"history"`
	Favorites   []entity.FavoriteItem `json:"favorites"`
	Chat        []entity.ChatMessage  `json:"chat"`
	ChatState   string                `json:"chatState"`
	Speaking    bool                  `json:"speaking"`
}

func (w *Workspace) Snapshot(ctx context.Context) Snapshot {
	return Snapshot{
		ClientID:    w.clientID,
		User:        w.session.Identity(),
		Preferences: w.Preferences(ctx),
		Current:     w.Current(),
		History:     w.session.History(),
		Favorites:   w.session.Favorites(),
		Chat:        w.chat.Transcript(),
		ChatState:   w.chat.State().String(),
		Speaking:    w.player.Active(),
	}
}

// Close stops playback. Persisted state is untouched.
func (w *Workspace) Close() {
	w.player.Stop()
}

func (w *Workspace) emit(ctx context.Context, eventType string, data map[string]interface{}) {
	w.notifier.Emit(ctx, w.clientID, eventType, data)
}
