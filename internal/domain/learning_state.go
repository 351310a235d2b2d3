package domain

import (
	"encoding/json"
	"strings"
)

// LearningState is the typed shape of the identity profile's loosely
// structured learning_state column. Every field is optional; malformed
// sub-documents degrade to their zero value instead of failing the parse.
type LearningState struct {
	Version          int               `json:"version,omitempty"`
	FeedbackPatterns *FeedbackPatterns `json:"feedbackPatterns,omitempty"`
}

type FeedbackPatterns struct {
	TonePreferences  []ToneSignal `json:"tonePreferences,omitempty"`
	LengthPreference string       `json:"lengthPreference,omitempty"`
	StyleMarkers     []string     `json:"styleMarkers,omitempty"`
}

type ToneSignal struct {
	Tone   string  `json:"tone"`
	Weight float64 `json:"weight"`
}

// DerivedPreferences is what modules actually consume: a tone-weight
// histogram, a length preference and free-form style markers, always fully
// populated.
type DerivedPreferences struct {
	ToneWeights      map[string]float64 `json:"tone_weights"`
	LengthPreference string             `json:"length_preference"`
	StyleMarkers     []string           `json:"style_markers"`
}

const defaultLengthPreference = "medium"

// ParseLearningState never fails: a nil, empty or malformed document parses
// as the zero state, and a malformed feedbackPatterns sub-document is
// dropped while the rest of the state survives.
func ParseLearningState(raw []byte) LearningState {
	if len(raw) == 0 {
		return LearningState{}
	}
	var outer struct {
		Version          int             `json:"version"`
		FeedbackPatterns json.RawMessage `json:"feedbackPatterns"`
	}
	if err := json.Unmarshal(raw, &outer); err != nil {
		return LearningState{}
	}
	state := LearningState{Version: outer.Version}
	if len(outer.FeedbackPatterns) > 0 && string(outer.FeedbackPatterns) != "null" {
		var fp FeedbackPatterns
		if err := json.Unmarshal(outer.FeedbackPatterns, &fp); err == nil {
			state.FeedbackPatterns = &fp
		}
	}
	return state
}

// DerivePreferences folds accumulated feedback into generation preferences.
// With no usable feedback history the defaults are a flat
// professional/friendly tone split and medium length.
func (ls LearningState) DerivePreferences() DerivedPreferences {
	prefs := DerivedPreferences{
		ToneWeights:      map[string]float64{"professional": 1, "friendly": 1},
		LengthPreference: defaultLengthPreference,
		StyleMarkers:     []string{},
	}
	fp := ls.FeedbackPatterns
	if fp == nil {
		return prefs
	}

	weights := map[string]float64{}
	for _, sig := range fp.TonePreferences {
		tone := strings.TrimSpace(strings.ToLower(sig.Tone))
		if tone == "" || sig.Weight <= 0 {
			continue
		}
		weights[tone] += sig.Weight
	}
	if len(weights) > 0 {
		prefs.ToneWeights = weights
	}

	switch strings.TrimSpace(strings.ToLower(fp.LengthPreference)) {
	case "short", "medium", "long":
		prefs.LengthPreference = strings.TrimSpace(strings.ToLower(fp.LengthPreference))
	}

	for _, m := range fp.StyleMarkers {
		if m = strings.TrimSpace(m); m != "" {
			prefs.StyleMarkers = append(prefs.StyleMarkers, m)
		}
	}
	return prefs
}
