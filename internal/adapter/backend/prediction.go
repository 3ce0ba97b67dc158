package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/couchcryptid/rockfall-risk-service/internal/domain"
)

// ParsePrediction extracts the risk token from a /predict body. The token is
// taken from the first present, non-null, non-blank field among prediction.risk,
// prediction.risk_level, risk and risk_level, and mapped once onto the
// closed Level enum. A body with no usable token yields LevelUnknown.
func ParsePrediction(body []byte) (domain.Prediction, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return domain.Prediction{}, fmt.Errorf("decode prediction: %w: %w", ErrMalformedResponse, err)
	}

	var nested map[string]json.RawMessage
	if raw, ok := present(top, "prediction"); ok {
		// A non-object prediction carries no risk fields.
		_ = json.Unmarshal(raw, &nested)
	}

	var token string
	for _, candidate := range []struct {
		fields map[string]json.RawMessage
		key    string
	}{
		{nested, "risk"},
		{nested, "risk_level"},
		{top, "risk"},
		{top, "risk_level"},
	} {
		raw, ok := present(candidate.fields, candidate.key)
		if !ok {
			continue
		}
		// Blank tokens fall through to the next field.
		if t := asString(raw); strings.TrimSpace(t) != "" {
			token = t
			break
		}
	}

	var alertText string
	if raw, ok := present(top, "alert"); ok {
		alertText = asString(raw)
	}

	return domain.Prediction{
		Level:   domain.ParseLevel(token),
		RawRisk: token,
		Alert:   alertText,
	}, nil
}

func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, false
	}
	return raw, true
}

// asString returns a JSON string's value, or the raw JSON text for any other
// value so it can be logged and fails the level parse.
func asString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
