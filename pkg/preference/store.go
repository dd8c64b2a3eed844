// Package preference persists the process-wide display preferences of one client device.
package preference

import (
	"context"
	"strconv"

	"trend-finder-be/internal/entity"
	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/internal/repository/kv"
	"trend-finder-be/pkg/apperr"
	"trend-finder-be/pkg/i18n"
)

const (
	KeyLanguage     = "trendFinderLang"
	KeyFontScale    = "trendFinderFontScale"
	KeyReadingSpeed = "trendFinderReadingSpeed"
)

var Defaults = entity.Preferences{
	Language:     i18n.DefaultLanguage,
	FontScale:    1,
	ReadingSpeed: 1,
}

// DirectionNotifier is called after the language changes.
type DirectionNotifier func(ctx context.Context, lang entity.Language, dir entity.Direction)

// Patch fields left nil are not changed.
type Patch struct {
	Language     *entity.Language
	FontScale    *float64
	ReadingSpeed *float64
}

type Store struct {
	kv       kv.Store
	logger   logger.ILogger
	notifier DirectionNotifier
}

func NewStore(store kv.Store, log logger.ILogger, notifier DirectionNotifier) *Store {
	return &Store{
		kv:       store,
		logger:   log,
		notifier: notifier,
	}
}

// Get returns the stored preferences. Missing or unparsable values fall back to Defaults.
func (s *Store) Get(ctx context.Context) entity.Preferences {
	prefs := Defaults

	if raw, ok := s.read(ctx, KeyLanguage); ok {
		if lang := entity.Language(raw); lang.Valid() {
			prefs.Language = lang
		}
	}
	if v, ok := s.readPositive(ctx, KeyFontScale); ok {
		prefs.FontScale = v
	}
	if v, ok := s.readPositive(ctx, KeyReadingSpeed); ok {
		prefs.ReadingSpeed = v
	}

	return prefs
}

// Set validates the whole patch before writing any of it.
func (s *Store) Set(ctx context.Context, patch Patch) (entity.Preferences, error) {
	if patch.Language != nil && !patch.Language.Valid() {
		return entity.Preferences{}, apperr.New(apperr.KindInputValidation, "preference.set", "unsupported language: "+string(*patch.Language))
	}
	if patch.FontScale != nil && *patch.FontScale <= 0 {
		return entity.Preferences{}, apperr.New(apperr.KindInputValidation, "preference.set", "fontScale must be positive")
	}
	if patch.ReadingSpeed != nil && *patch.ReadingSpeed <= 0 {
		return entity.Preferences{}, apperr.New(apperr.KindInputValidation, "preference.set", "readingSpeed must be positive")
	}

	before := s.Get(ctx)

	if patch.Language != nil {
		s.write(ctx, KeyLanguage, string(*patch.Language))
	}
	if patch.FontScale != nil {
		s.write(ctx, KeyFontScale, strconv.FormatFloat(*patch.FontScale, 'f', -1, 64))
	}
	if patch.ReadingSpeed != nil {
		s.write(ctx, KeyReadingSpeed, strconv.FormatFloat(*patch.ReadingSpeed, 'f', -1, 64))
	}

	after := s.Get(ctx)
	if patch.Language != nil {
		// Storage failures above are swallowed, so report what was asked for.
		after.Language = *patch.Language
	}
	if patch.FontScale != nil {
		after.FontScale = *patch.FontScale
	}
	if patch.ReadingSpeed != nil {
		after.ReadingSpeed = *patch.ReadingSpeed
	}

	if patch.Language != nil && after.Language != before.Language && s.notifier != nil {
		s.notifier(ctx, after.Language, i18n.DirectionOf(after.Language))
	}

	return after, nil
}

func (s *Store) read(ctx context.Context, key string) (string, bool) {
	raw, found, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Warn("PREFERENCE", "Failed to read preference", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return "", false
	}
	return raw, found
}

func (s *Store) readPositive(ctx context.Context, key string) (float64, bool) {
	raw, ok := s.read(ctx, key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func (s *Store) write(ctx context.Context, key, value string) {
	if err := s.kv.Set(ctx, key, value); err != nil {
		s.logger.Error("PREFERENCE", "Failed to write preference", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
