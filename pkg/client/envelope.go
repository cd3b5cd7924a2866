package client

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"
)

// errNotJSON is returned by Envelope.Decode for bodies that are not JSON.
var errNotJSON = errors.New("response is not JSON")

// Envelope separates the session-validity side channel from a response's
// business payload.
type Envelope struct {
	// Banned is true only when the body is JSON with a top-level boolean banned: true.
	Banned bool
	// JSON reports whether the body parsed as JSON at all.
	JSON bool
	Body []byte
}

// CheckEnvelope scans a raw response body for the ban flag. It never fails:
// HTML error pages, empty bodies and truncated JSON are reported as not banned.
func CheckEnvelope(body []byte) Envelope {
	env := Envelope{Body: body}
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return env
	}
	env.JSON = true
	env.Banned = gjson.GetBytes(body, "banned").Type == gjson.True
	return env
}

// Decode unmarshals the payload into out.
func (e Envelope) Decode(out any) error {
	if !e.JSON {
		return errNotJSON
	}
	return json.Unmarshal(e.Body, out)
}

// DecodeEnvelope scans body for the ban flag and decodes the payload as T.
func DecodeEnvelope[T any](body []byte) (Envelope, T, error) {
	var out T
	env := CheckEnvelope(body)
	if err := env.Decode(&out); err != nil {
		return env, out, err
	}
	return env, out, nil
}
