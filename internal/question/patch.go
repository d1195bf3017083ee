package question

import (
	"bytes"
	"encoding/json"
	"strings"
)

// patchFields are the members a partial update may carry. Read-only members
// (id, createdAt, subTopics) and unknown ones are not forwarded.
var patchFields = map[string]bool{
	"title": true, "description": true, "content": true, "explanation": true,
	"type": true, "tags": true, "totalPotentialMarks": true, "difficultyLevel": true,
	"hidden": true, fieldMultipleChoice: true, fieldTrueFalse: true, fieldIsTrue: true,
	fieldShortAnswers: true,
}

// Patch is a partial question update holding only the members the caller
// sent. Absent members are left untouched upstream.
type Patch map[string]json.RawMessage

// PatchOf returns the full payload of q as a Patch.
func PatchOf(q Question) (Patch, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	delete(p, "id")
	delete(p, "createdAt")
	return p, nil
}

// Check returns the first member that upstream could not store, with the
// reason. ok is true when every member present is well formed.
func (p Patch) Check() (field, reason string, ok bool) {
	for _, f := range []string{"title", "content"} {
		if raw, present := p[f]; present {
			var s string
			if json.Unmarshal(raw, &s) != nil || blank(s) {
				return f, f + " is required", false
			}
		}
	}
	if raw, present := p["type"]; present {
		var t Type
		if json.Unmarshal(raw, &t) != nil || !t.Valid() {
			return "type", "type must be one of MULTIPLE_CHOICE, TRUE_FALSE, SHORT_ANSWER", false
		}
	}
	checks := []struct {
		field string
		into  any
	}{
		{"description", new(string)},
		{"explanation", new(string)},
		{"hidden", new(bool)},
		{fieldIsTrue, new(bool)},
		{"totalPotentialMarks", new(int)},
		{"difficultyLevel", new(float64)},
		{"tags", new([]string)},
		{fieldMultipleChoice, new([]Option)},
		{fieldTrueFalse, new([]Option)},
		{fieldShortAnswers, new([]ShortAnswer)},
	}
	for _, c := range checks {
		if raw, present := p[c.field]; present && json.Unmarshal(raw, c.into) != nil {
			return c.field, c.field + " is malformed", false
		}
	}
	return "", "", true
}

// Normalized returns the members to forward. Read-only and unknown members
// are dropped, as are null or empty values. When the patch names a type, the
// variant members of the other types are dropped; a true/false pair is put in
// True-first order and isTrue is derived from it when not sent.
func (p Patch) Normalized() Patch {
	out := make(Patch, len(p))
	for k, v := range p {
		if patchFields[k] && !emptyJSON(v) {
			out[k] = v
		}
	}

	var typ Type
	if raw, ok := out["type"]; ok {
		_ = json.Unmarshal(raw, &typ)
	}
	switch typ {
	case TypeMultipleChoice:
		delete(out, fieldTrueFalse)
		delete(out, fieldIsTrue)
		delete(out, fieldShortAnswers)
	case TypeShortAnswer:
		delete(out, fieldMultipleChoice)
		delete(out, fieldTrueFalse)
		delete(out, fieldIsTrue)
	case TypeTrueFalse:
		delete(out, fieldMultipleChoice)
		delete(out, fieldShortAnswers)
	}

	if raw, ok := out[fieldTrueFalse]; ok {
		var opts []Option
		var isTrue *bool
		if json.Unmarshal(raw, &opts) == nil && len(opts) == 2 {
			if rawIsTrue, sent := out[fieldIsTrue]; sent {
				var b bool
				if json.Unmarshal(rawIsTrue, &b) == nil {
					isTrue = &b
				}
			}
			tf := decodeTrueFalse(opts, isTrue)
			if data, err := json.Marshal(tf.Options[:]); err == nil {
				out[fieldTrueFalse] = data
			}
			if data, err := json.Marshal(tf.IsTrue()); err == nil {
				out[fieldIsTrue] = data
			}
		}
	}
	return out
}

// emptyJSON mirrors the strip pass applied to full payloads.
func emptyJSON(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	switch {
	case len(v) == 0, bytes.Equal(v, []byte("null")):
		return true
	case bytes.Equal(v, []byte(`""`)):
		return true
	case v[0] == '[' || v[0] == '{':
		inner := strings.TrimSpace(string(v[1 : len(v)-1]))
		return inner == ""
	}
	return false
}
