// Package locale holds the bilingual (English/Vietnamese) catalog for the
// handful of user-facing transport messages. Full UI localization is out of
// scope; only operator-actionable backend errors are translated.
package locale

import (
	"fmt"

	"golang.org/x/text/language"
)

// MessageID names one translatable message
type MessageID string

const (
	MsgBackendUnreachable MessageID = "backend_unreachable"
	MsgBackendUnhealthy   MessageID = "backend_unhealthy"
	MsgUploadFailed       MessageID = "upload_failed"
)

var supported = []language.Tag{
	language.English,    // en — default
	language.Vietnamese, // vi
}

var matcher = language.NewMatcher(supported)

var catalog = map[language.Tag]map[MessageID]string{
	language.English: {
		MsgBackendUnreachable: "Cannot connect to the analysis backend at %s. Make sure the backend server is running and reachable.",
		MsgBackendUnhealthy:   "The analysis backend at %s did not answer the health check. Start the backend before uploading data.",
		MsgUploadFailed:       "The data file could not be uploaded: %s",
	},
	language.Vietnamese: {
		MsgBackendUnreachable: "Không thể kết nối đến máy chủ phân tích tại %s. Vui lòng kiểm tra máy chủ backend đang chạy.",
		MsgBackendUnhealthy:   "Máy chủ phân tích tại %s không phản hồi kiểm tra trạng thái. Vui lòng khởi động backend trước khi tải dữ liệu lên.",
		MsgUploadFailed:       "Không thể tải lên tệp dữ liệu: %s",
	},
}

// Localizer renders catalog messages. Implementations may resolve the target
// language per call so a changed preference applies to subsequent messages.
type Localizer interface {
	Sprintf(id MessageID, args ...interface{}) string
}

// Translator renders catalog messages in a negotiated language
type Translator struct {
	tag language.Tag
}

// NewTranslator negotiates the closest supported language for the given
// preference ("en", "vi", or any BCP 47 tag). Unknown preferences fall back
// to English.
func NewTranslator(preferred string) *Translator {
	tag, _ := language.MatchStrings(matcher, preferred)
	// The matcher returns refined tags (e.g. en-u-rg-...); map back onto the
	// catalog keys.
	base, _ := tag.Base()
	resolved := language.English
	for _, s := range supported {
		if sb, _ := s.Base(); sb == base {
			resolved = s
			break
		}
	}
	return &Translator{tag: resolved}
}

// Language returns the resolved language tag
func (t *Translator) Language() language.Tag {
	return t.tag
}

// Sprintf renders a catalog message with arguments
func (t *Translator) Sprintf(id MessageID, args ...interface{}) string {
	msgs, ok := catalog[t.tag]
	if !ok {
		msgs = catalog[language.English]
	}
	format, ok := msgs[id]
	if !ok {
		format = catalog[language.English][id]
	}
	return fmt.Sprintf(format, args...)
}

// Preference supplies the current language preference ("en", "vi", or any
// BCP 47 tag).
type Preference interface {
	Language() string
}

// DynamicTranslator negotiates the language on every call from a live
// preference source, so a settings change takes effect without rebuilding
// anything that holds the translator.
type DynamicTranslator struct {
	prefs Preference
}

// NewDynamicTranslator wraps a preference source
func NewDynamicTranslator(prefs Preference) *DynamicTranslator {
	return &DynamicTranslator{prefs: prefs}
}

// Sprintf renders a catalog message in the currently preferred language
func (d *DynamicTranslator) Sprintf(id MessageID, args ...interface{}) string {
	return NewTranslator(d.prefs.Language()).Sprintf(id, args...)
}
