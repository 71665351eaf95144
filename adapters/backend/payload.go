package backend

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// The backend's result payloads are opaque to this service, but a couple of
// well-known fields are probed for presentation without committing to a
// schema: gjson keeps the payload a dumb byte slice otherwise.

// SignificanceFromPayload probes an opaque result payload for a significance
// verdict. It accepts either an explicit boolean "significant" field or a
// "p_value" below 0.05. The second return reports whether anything usable
// was found.
func SignificanceFromPayload(data json.RawMessage) (bool, bool) {
	if len(data) == 0 {
		return false, false
	}
	if sig := gjson.GetBytes(data, "significant"); sig.Exists() {
		return sig.Bool(), true
	}
	if p := gjson.GetBytes(data, "p_value"); p.Exists() {
		return p.Float() < 0.05, true
	}
	return false, false
}

// RLibraryFromPayload probes an opaque result payload for the R package
// provenance string the backend sometimes nests under metadata.
func RLibraryFromPayload(data json.RawMessage) string {
	if len(data) == 0 {
		return ""
	}
	for _, path := range []string{"r_library", "rLibrary", "metadata.r_library"} {
		if lib := gjson.GetBytes(data, path); lib.Exists() {
			return lib.String()
		}
	}
	return ""
}

// BackendStatusFromHealth probes the raw health payload for a status string,
// defaulting to "online" for any 2xx answer without one.
func BackendStatusFromHealth(data json.RawMessage) string {
	if status := gjson.GetBytes(data, "status"); status.Exists() {
		return status.String()
	}
	return "online"
}
