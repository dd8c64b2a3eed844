// Package i18n holds the user-facing strings and language helpers.
package i18n

import (
	"trend-finder-be/internal/entity"

	"golang.org/x/text/language"
)

type MessageKey string

const (
	MsgInputEmpty      MessageKey = "input.errorEmpty"
	MsgAnalysisGeneric MessageKey = "input.errorGeneric"
	MsgInvalidFormat   MessageKey = "result.invalidFormat"
	MsgChatError       MessageKey = "result.chat.error"
	MsgSpeechError     MessageKey = "result.speech.error"
	MsgImportError     MessageKey = "settings.importError"
	MsgImportSuccess   MessageKey = "settings.importSuccess"
	MsgExportSuccess   MessageKey = "settings.exportSuccess"
)

const DefaultLanguage = entity.LanguageHebrew

var catalog = map[entity.Language]map[MessageKey]string{
	entity.LanguageHebrew: {
		MsgInputEmpty:      "אנא ספק טקסט או תמונה לניתוח.",
		MsgAnalysisGeneric: "אירעה שגיאה בעיבוד הבקשה. אנא נסה שוב.",
		MsgInvalidFormat:   "המודל החזיר תשובה בפורמט לא תקין. אנא נסה שוב.",
		MsgChatError:       "שגיאה בתקשורת עם המודל.",
		MsgSpeechError:     "שגיאה בהשמעת השמע.",
		MsgImportError:     "שגיאה בטעינת הקובץ.",
		MsgImportSuccess:   "הנתונים יובאו בהצלחה!",
		MsgExportSuccess:   "הנתונים יוצאו בהצלחה!",
	},
	entity.LanguageEnglish: {
		MsgInputEmpty:      "Please provide text or an image for analysis.",
		MsgAnalysisGeneric: "An error occurred while processing. Please try again.",
		MsgInvalidFormat:   "The model returned an invalid format. Please try again.",
		MsgChatError:       "Error communicating with the model.",
		MsgSpeechError:     "Error playing audio.",
		MsgImportError:     "Error loading file.",
		MsgImportSuccess:   "Data imported successfully!",
		MsgExportSuccess:   "Data exported successfully!",
	},
	entity.LanguageRussian: {
		MsgInputEmpty:      "Пожалуйста, предоставьте текст или изображение.",
		MsgAnalysisGeneric: "Произошла ошибка при обработке. Попробуйте снова.",
		MsgInvalidFormat:   "Модель вернула неверный формат. Попробуйте снова.",
		MsgChatError:       "Ошибка связи с моделью.",
		MsgSpeechError:     "Ошибка воспроизведения аудио.",
		MsgImportError:     "Ошибка при импорте.",
		MsgImportSuccess:   "Данные успешно импортированы!",
		MsgExportSuccess:   "Данные успешно экспортированы!",
	},
}

// T returns the message for lang, falling back to English for unknown languages.
func T(lang entity.Language, key MessageKey) string {
	if msgs, ok := catalog[lang]; ok {
		if msg, ok := msgs[key]; ok {
			return msg
		}
	}
	return catalog[entity.LanguageEnglish][key]
}

// DirectionOf is right-to-left for Hebrew and left-to-right otherwise.
func DirectionOf(lang entity.Language) entity.Direction {
	if lang == entity.LanguageHebrew {
		return entity.DirectionRTL
	}
	return entity.DirectionLTR
}

// TargetLanguageName is the English name used inside model instructions.
func TargetLanguageName(lang entity.Language) string {
	switch lang {
	case entity.LanguageHebrew:
		return "Hebrew"
	case entity.LanguageRussian:
		return "Russian"
	}
	return "English"
}

var voiceLocales = map[entity.Language]language.Tag{
	entity.LanguageHebrew:  language.MustParse("he-IL"),
	entity.LanguageEnglish: language.AmericanEnglish,
	entity.LanguageRussian: language.MustParse("ru-RU"),
}

// VoiceLocale is the BCP-47 tag handed to the browser speech recognizer.
func VoiceLocale(lang entity.Language) string {
	if tag, ok := voiceLocales[lang]; ok {
		return tag.String()
	}
	return language.AmericanEnglish.String()
}

var supported = []language.Tag{
	language.Hebrew,
	language.English,
	language.Russian,
}

var matcher = language.NewMatcher(supported)

// ParseLanguage accepts a bare code or any BCP-47 tag ("en-GB", "iw") and maps it
// onto a supported language. Unsupported or malformed input returns false.
func ParseLanguage(s string) (entity.Language, bool) {
	if lang := entity.Language(s); lang.Valid() {
		return lang, true
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", false
	}
	_, idx, conf := matcher.Match(tag)
	if conf < language.High {
		return "", false
	}
	base, _ := supported[idx].Base()
	lang := entity.Language(base.String())
	return lang, lang.Valid()
}
