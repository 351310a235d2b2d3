package modules

import (
	"sort"
	"strings"

	"github.com/glowlabs-ai/glow-backend/internal/data/repos/identity"
	"github.com/glowlabs-ai/glow-backend/internal/domain"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
	"github.com/glowlabs-ai/glow-backend/internal/sync"
)

// Deps is everything the content modules touch. Each module gets the same
// bag; what it may actually read is decided by its module context projection.
type Deps struct {
	Log     *logger.Logger
	Photos  identity.PhotoRepo
	Content identity.ContentRepo
}

// RegisterAll builds the full module registry. The sync executor only sees
// the Module interface; everything below this package boundary is module
// internals.
func RegisterAll(deps Deps) sync.Registry {
	return sync.NewRegistry(
		NewPhotoRankingModule(deps),
		NewBioGeneratorModule(deps),
		NewCareerModule(deps),
		NewDatingModule(deps),
		NewAestheticModule(deps),
	)
}

// dominantTone picks the heaviest tone from the derived preferences, ties
// broken alphabetically so output is stable across runs.
func dominantTone(prefs domain.DerivedPreferences) string {
	tone := "friendly"
	best := 0.0
	keys := make([]string, 0, len(prefs.ToneWeights))
	for k := range prefs.ToneWeights {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if w := prefs.ToneWeights[k]; w > best {
			best = w
			tone = k
		}
	}
	return tone
}

func sentenceBudget(lengthPreference string) int {
	switch lengthPreference {
	case "short":
		return 2
	case "long":
		return 6
	default:
		return 4
	}
}

// attr reads a string attribute out of the loosely typed core-attributes map.
func attr(attrs map[string]any, key, fallback string) string {
	if attrs == nil {
		return fallback
	}
	if v, ok := attrs[key].(string); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return fallback
}
