package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"trend-finder-be/internal/entity"
	"trend-finder-be/pkg/apperr"
	"trend-finder-be/pkg/events"
	"trend-finder-be/pkg/i18n"
	"trend-finder-be/pkg/preference"
)

// Backup is the import/export document. On import, nil fields are left untouched.
type Backup struct {
	User      *entity.User           `json:"user"`
	History   *[]entity.HistoryItem  `json:"history,omitempty"`
	Favorites *[]entity.FavoriteItem `json:"favorites,omitempty"`
	Settings  *Settings              `json:"settings,omitempty"`
}

type Settings struct {
	Language     *entity.Language `json:"language,omitempty"`
	FontScale    *float64         `json:"fontScale,omitempty"`
	ReadingSpeed *float64         `json:"readingSpeed,omitempty"`
}

func ExportFileName(now time.Time) string {
	return fmt.Sprintf("trend-finder-backup-%s.json", now.Format("2006-01-02"))
}

func (w *Workspace) Export(ctx context.Context) Backup {
	history := w.session.History()
	favorites := w.session.Favorites()
	prefs := w.prefs.Get(ctx)

	return Backup{
		User:      w.session.Identity(),
		History:   &history,
		Favorites: &favorites,
		Settings: &Settings{
			Language:     &prefs.Language,
			FontScale:    &prefs.FontScale,
			ReadingSpeed: &prefs.ReadingSpeed,
		},
	}
}

// ExportJSON is Export as an indented document.
func (w *Workspace) ExportJSON(ctx context.Context) ([]byte, error) {
	return json.MarshalIndent(w.Export(ctx), "", "  ")
}

// ImportJSON parses a backup document and applies it.
func (w *Workspace) ImportJSON(ctx context.Context, data []byte) error {
	lang := w.prefs.Get(ctx).Language

	var doc Backup
	if err := json.Unmarshal(data, &doc); err != nil {
		return apperr.WithMessage(
			apperr.Wrap(apperr.KindInputValidation, "workspace.import", err),
			i18n.T(lang, i18n.MsgImportError),
		)
	}
	return w.Import(ctx, doc)
}

// Import applies every present field of doc. The user is applied first so the
// collections land in that user's namespace.
func (w *Workspace) Import(ctx context.Context, doc Backup) error {
	lang := w.prefs.Get(ctx).Language

	if doc.User != nil && doc.User.Id == "" {
		return apperr.New(apperr.KindInputValidation, "workspace.import", i18n.T(lang, i18n.MsgImportError))
	}
	var patch preference.Patch
	if doc.Settings != nil {
		patch = preference.Patch{
			Language:     doc.Settings.Language,
			FontScale:    doc.Settings.FontScale,
			ReadingSpeed: doc.Settings.ReadingSpeed,
		}
		if err := validatePatch(patch); err != nil {
			return apperr.WithMessage(err, i18n.T(lang, i18n.MsgImportError))
		}
	}

	if doc.User != nil {
		current := w.session.Identity()
		if current == nil || *current != *doc.User {
			w.switchIdentity(ctx, doc.User)
		}
	}
	if doc.History != nil {
		w.session.ReplaceHistory(ctx, *doc.History)
		w.emit(ctx, events.HistoryUpdated, map[string]interface{}{"count": len(w.session.History())})
	}
	if doc.Favorites != nil {
		w.session.ReplaceFavorites(ctx, *doc.Favorites)
		w.emit(ctx, events.FavoritesUpdated, map[string]interface{}{"count": len(w.session.Favorites())})
	}
	if doc.Settings != nil {
		if _, err := w.prefs.Set(ctx, patch); err != nil {
			return apperr.WithMessage(err, i18n.T(lang, i18n.MsgImportError))
		}
	}

	w.logger.Info("WORKSPACE", "Backup imported", map[string]interface{}{
		"client_id": w.clientID,
		"user":      doc.User != nil,
		"history":   doc.History != nil,
		"favorites": doc.Favorites != nil,
		"settings":  doc.Settings != nil,
	})
	return nil
}

func validatePatch(p preference.Patch) error {
	switch {
	case p.Language != nil && !p.Language.Valid():
		return apperr.New(apperr.KindInputValidation, "workspace.import", "unsupported language")
	case p.FontScale != nil && *p.FontScale <= 0:
		return apperr.New(apperr.KindInputValidation, "workspace.import", "fontScale must be positive")
	case p.ReadingSpeed != nil && *p.ReadingSpeed <= 0:
		return apperr.New(apperr.KindInputValidation, "workspace.import", "readingSpeed must be positive")
	}
	return nil
}
