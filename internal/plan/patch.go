package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Patch is a plan update body holding only the members the caller sent, with
// created entries already reduced to references.
type Patch map[string]json.RawMessage

// updatableFields are the members upstream accepts on PUT.
var updatableFields = map[string]bool{
	"subTopicId": true, "prompt": true, "bannedList": true, "creativityLevel": true,
	"difficultyLevel": true, "tags": true, "quota": true, "created": true,
	"locked": true, "active": true,
}

// NewPatch reshapes a plan body as the dashboard holds it. Members the caller
// left out stay absent so upstream keeps them, and read-only or unknown
// members are dropped. Created entries become {question: id} and null lists
// become empty ones.
func NewPatch(body map[string]json.RawMessage) (Patch, error) {
	p := make(Patch, len(body))
	for k, v := range body {
		if !updatableFields[k] {
			continue
		}
		switch k {
		case "created":
			var entries []CreatedEntry
			if err := json.Unmarshal(v, &entries); err != nil {
				return nil, fmt.Errorf("created: %w", err)
			}
			reshaped := Plan{Created: entries}
			data, err := json.Marshal(reshaped.UpdateRequest().Created)
			if err != nil {
				return nil, err
			}
			v = data
		case "bannedList", "tags":
			if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
				v = json.RawMessage(`[]`)
			}
		}
		p[k] = v
	}
	return p, nil
}

// Validate checks the members present against the rules applied on create.
func (p Patch) Validate() error {
	if raw, ok := p["subTopicId"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
			return ErrSubtopicRequired
		}
	}
	if raw, ok := p["prompt"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil || strings.TrimSpace(s) == "" {
			return ErrPromptRequired
		}
	}
	if raw, ok := p["quota"]; ok {
		var n int
		if err := json.Unmarshal(raw, &n); err != nil || n <= 0 {
			return ErrQuotaInvalid
		}
	}
	for _, f := range []string{"creativityLevel", "difficultyLevel"} {
		if raw, ok := p[f]; ok {
			var v float64
			if err := json.Unmarshal(raw, &v); err != nil || !inUnitRange(v) {
				return fmt.Errorf("%s: %w", f, ErrLevelOutOfRange)
			}
		}
	}
	for _, f := range []string{"locked", "active"} {
		if raw, ok := p[f]; ok {
			var b bool
			if err := json.Unmarshal(raw, &b); err != nil {
				return fmt.Errorf("%s must be true or false", f)
			}
		}
	}
	for _, f := range []string{"bannedList", "tags"} {
		if raw, ok := p[f]; ok {
			var list []string
			if err := json.Unmarshal(raw, &list); err != nil {
				return fmt.Errorf("%s must be a list of strings", f)
			}
		}
	}
	return nil
}
