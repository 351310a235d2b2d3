package domain

import (
	"testing"
)

func TestParseLearningStateDefaults(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"not json":         "not-json{",
		"wrong type":       `"a string"`,
		"empty object":     `{}`,
		"null patterns":    `{"feedbackPatterns": null}`,
		"garbage patterns": `{"feedbackPatterns": [1,2,3]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			prefs := ParseLearningState([]byte(raw)).DerivePreferences()
			if prefs.ToneWeights["professional"] != 1 || prefs.ToneWeights["friendly"] != 1 {
				t.Fatalf("expected default tone weights, got %v", prefs.ToneWeights)
			}
			if prefs.LengthPreference != "medium" {
				t.Fatalf("expected default length, got %q", prefs.LengthPreference)
			}
			if len(prefs.StyleMarkers) != 0 {
				t.Fatalf("expected no style markers, got %v", prefs.StyleMarkers)
			}
		})
	}
}

func TestParseLearningStateFeedback(t *testing.T) {
	raw := []byte(`{
		"version": 2,
		"feedbackPatterns": {
			"tonePreferences": [
				{"tone": "Witty", "weight": 2.5},
				{"tone": "witty", "weight": 0.5},
				{"tone": "", "weight": 3},
				{"tone": "formal", "weight": -1}
			],
			"lengthPreference": "LONG",
			"styleMarkers": ["  emoji-heavy ", "", "direct"]
		}
	}`)
	state := ParseLearningState(raw)
	if state.Version != 2 {
		t.Fatalf("version: got %d", state.Version)
	}
	prefs := state.DerivePreferences()
	if got := prefs.ToneWeights["witty"]; got != 3 {
		t.Fatalf("witty weight: got %v", got)
	}
	if _, ok := prefs.ToneWeights["formal"]; ok {
		t.Fatalf("negative weight should be dropped")
	}
	if _, ok := prefs.ToneWeights["professional"]; ok {
		t.Fatalf("defaults should be replaced once real feedback exists")
	}
	if prefs.LengthPreference != "long" {
		t.Fatalf("length: got %q", prefs.LengthPreference)
	}
	if len(prefs.StyleMarkers) != 2 || prefs.StyleMarkers[0] != "emoji-heavy" {
		t.Fatalf("style markers: got %v", prefs.StyleMarkers)
	}
}

func TestSyncJobResultsRoundTrip(t *testing.T) {
	job := &SyncJob{}
	results, err := job.Results()
	if err != nil || len(results) != 0 {
		t.Fatalf("empty column: err=%v len=%d", err, len(results))
	}

	job.ModuleResults = MarshalModuleResults(map[string]*ModuleResult{
		"bio_generator": {Module: "bio_generator", Status: ModuleResultFailed, Error: "rate limited"},
		"career_module": {Module: "career_module", Status: ModuleResultCompleted, ItemsProcessed: 3},
	})
	results, err = job.Results()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if results["career_module"].ItemsProcessed != 3 {
		t.Fatalf("round trip lost data: %+v", results["career_module"])
	}
	failed := job.FailedModules()
	if len(failed) != 1 || failed[0] != "bio_generator" {
		t.Fatalf("FailedModules: got %v", failed)
	}
}
