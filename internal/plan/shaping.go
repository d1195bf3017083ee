package plan

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrSubtopicRequired = errors.New("subTopicId is required")
	ErrPromptRequired   = errors.New("prompt is required")
	ErrQuotaInvalid     = errors.New("quota must be a positive integer")
	ErrLevelOutOfRange  = errors.New("level must be between 0 and 1")
)

// UpdateRequest reshapes the plan for PUT. Created entries are reduced to
// {question: id}; entries without any id are dropped.
func (p *Plan) UpdateRequest() UpdateRequest {
	refs := make([]Ref, 0, len(p.Created))
	for _, e := range p.Created {
		if id := e.ID(); id != "" {
			refs = append(refs, Ref{Question: id})
		}
	}
	return UpdateRequest{
		SubTopicID:      p.SubTopicID,
		Prompt:          p.Prompt,
		BannedList:      nonNil(p.BannedList),
		CreativityLevel: p.CreativityLevel,
		DifficultyLevel: p.DifficultyLevel,
		Tags:            nonNil(p.Tags),
		Quota:           p.Quota,
		Created:         refs,
		Locked:          p.Locked,
		Active:          p.Active,
	}
}

// Validate checks the fields upstream requires on create.
func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.SubTopicID) == "" {
		return ErrSubtopicRequired
	}
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrPromptRequired
	}
	if r.Quota <= 0 {
		return ErrQuotaInvalid
	}
	if !inUnitRange(r.CreativityLevel) {
		return fmt.Errorf("creativityLevel: %w", ErrLevelOutOfRange)
	}
	if !inUnitRange(r.DifficultyLevel) {
		return fmt.Errorf("difficultyLevel: %w", ErrLevelOutOfRange)
	}
	return nil
}

// LevelFromInput parses a manually typed level. The result is clamped to [0,1]
// and truncated to two decimals; unparsable input keeps prev.
func LevelFromInput(raw string, prev float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) {
		return prev
	}
	return truncate2(clamp01(v))
}

// LevelFromSlider accepts a slider value as is; the control already bounds it.
func LevelFromSlider(v float64) float64 {
	return v
}

// QuotaFromInput parses a typed quota. Anything but a positive integer keeps
// prev, so the quota never falls to zero.
func QuotaFromInput(raw string, prev int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return prev
	}
	return v
}

// Summary holds the counters returned alongside plan data.
type Summary struct {
	Total   int
	Hidden  int
	Visible int
}

// Summarize counts plans and the hidden/visible questions they created.
// Corrupted entries are not counted.
func Summarize(plans ...Plan) Summary {
	s := Summary{Total: len(plans)}
	for i := range plans {
		for _, e := range plans[i].ValidEntries() {
			if e.Question.Hidden {
				s.Hidden++
			} else {
				s.Visible++
			}
		}
	}
	return s
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// truncate2 drops digits past the second decimal. It cuts the shortest
// decimal form of v, so 0.29 stays 0.29 and 0.729999999999 becomes 0.72.
func truncate2(v float64) float64 {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if dot := strings.IndexByte(s, '.'); dot >= 0 && len(s) > dot+3 {
		s = s[:dot+3]
	}
	out, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return v
	}
	return out
}

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
