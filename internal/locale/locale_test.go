package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type memPreference struct{ lang string }

func (p *memPreference) Language() string { return p.lang }

func TestTranslatorNegotiatesVietnamese(t *testing.T) {
	tr := NewTranslator("vi")
	msg := tr.Sprintf(MsgBackendUnreachable, "http://localhost:8000")
	assert.Contains(t, msg, "Không thể kết nối")
	assert.Contains(t, msg, "http://localhost:8000")
}

func TestTranslatorFallsBackToEnglish(t *testing.T) {
	tr := NewTranslator("de")
	msg := tr.Sprintf(MsgBackendUnhealthy, "http://localhost:8000")
	assert.Contains(t, msg, "health check")
}

func TestDynamicTranslatorFollowsPreferenceChanges(t *testing.T) {
	prefs := &memPreference{lang: "en"}
	tr := NewDynamicTranslator(prefs)

	assert.Contains(t, tr.Sprintf(MsgBackendUnreachable, "http://localhost:8000"),
		"Cannot connect")

	// A changed preference applies to the next message; nothing holding the
	// translator needs rebuilding.
	prefs.lang = "vi"
	assert.Contains(t, tr.Sprintf(MsgBackendUnreachable, "http://localhost:8000"),
		"Không thể kết nối")
}
