package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/glowlabs-ai/glow-backend/internal/data/repos/identity"
	"github.com/glowlabs-ai/glow-backend/internal/domain"
	"github.com/glowlabs-ai/glow-backend/internal/platform/dbctx"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
)

// recentContentWindow is how many generated-content summaries the context
// carries.
const recentContentWindow = 10

// GenerationContext is the immutable per-sync snapshot of a user's profile.
// Built fresh for every sync and retry, never mutated afterwards, owned by
// the call that built it.
type GenerationContext struct {
	UserID            uuid.UUID
	CoreAttributes    map[string]any
	AestheticState    map[string]any
	LearningState     domain.LearningState
	IdentityEmbedding []float64
	IdentityVersion   int
	Personas          map[domain.PersonaType]*domain.Persona
	Photos            []*domain.Photo
	RecentContent     []domain.ContentSummary
	Preferences       domain.DerivedPreferences
	BuiltAt           time.Time
}

// ModuleContext is the per-module projection of a GenerationContext. Fields
// a module does not need are zeroed so no module sees more than its slice of
// the profile.
type ModuleContext struct {
	UserID          uuid.UUID
	Module          string
	CoreAttributes  map[string]any
	AestheticState  map[string]any
	Personas        map[domain.PersonaType]*domain.Persona
	Photos          []*domain.Photo
	RecentContent   []domain.ContentSummary
	Preferences     domain.DerivedPreferences
	IdentityVersion int
}

// Builder assembles generation contexts from the identity stores.
type Builder struct {
	log      *logger.Logger
	profiles identity.ProfileRepo
	personas identity.PersonaRepo
	photos   identity.PhotoRepo
	content  identity.ContentRepo
}

func NewBuilder(
	baseLog *logger.Logger,
	profiles identity.ProfileRepo,
	personas identity.PersonaRepo,
	photos identity.PhotoRepo,
	content identity.ContentRepo,
) *Builder {
	return &Builder{
		log:      baseLog.With("service", "ContextBuilder"),
		profiles: profiles,
		personas: personas,
		photos:   photos,
		content:  content,
	}
}

// Build returns (nil, nil) when the user has no identity profile yet;
// callers treat that as a precondition failure, not an error.
func (b *Builder) Build(ctx context.Context, userID uuid.UUID) (*GenerationContext, error) {
	dbc := dbctx.New(ctx)

	profile, err := b.profiles.GetByUserID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load identity profile: %w", err)
	}
	if profile == nil {
		return nil, nil
	}

	personaRows, err := b.personas.ListByUser(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load personas: %w", err)
	}
	personas := map[domain.PersonaType]*domain.Persona{}
	for _, pt := range domain.AllPersonaTypes {
		personas[pt] = nil
	}
	for _, p := range personaRows {
		if _, known := personas[p.Type]; known {
			personas[p.Type] = p
		}
	}

	photoRows, err := b.photos.ListByUserOrdered(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load photos: %w", err)
	}

	recent, err := b.content.ListRecentSummaries(dbc, userID, recentContentWindow)
	if err != nil {
		return nil, fmt.Errorf("load recent content: %w", err)
	}

	learning := domain.ParseLearningState(profile.LearningState)

	return &GenerationContext{
		UserID:            userID,
		CoreAttributes:    decodeObject(profile.CoreAttributes),
		AestheticState:    decodeObject(profile.AestheticState),
		LearningState:     learning,
		IdentityEmbedding: decodeEmbedding(profile.IdentityEmbedding),
		IdentityVersion:   profile.IdentityVersion,
		Personas:          personas,
		Photos:            photoRows,
		RecentContent:     recent,
		Preferences:       learning.DerivePreferences(),
		BuiltAt:           time.Now(),
	}, nil
}

// ModuleContextFor projects the full context down to one module's view. Pure
// function over the snapshot; no queries.
func ModuleContextFor(gc *GenerationContext, module string) *ModuleContext {
	if gc == nil {
		return nil
	}
	mc := &ModuleContext{
		UserID:          gc.UserID,
		Module:          module,
		CoreAttributes:  gc.CoreAttributes,
		RecentContent:   gc.RecentContent,
		Preferences:     gc.Preferences,
		IdentityVersion: gc.IdentityVersion,
	}
	switch module {
	case ModulePhotoRanking:
		mc.Photos = gc.Photos
		mc.AestheticState = gc.AestheticState
	case ModuleBioGenerator:
		mc.Personas = clonePersonas(gc.Personas)
	case ModuleCareer:
		mc.Personas = clonePersonas(gc.Personas, domain.PersonaProfessional)
	case ModuleDating:
		mc.Photos = gc.Photos
		mc.Personas = clonePersonas(gc.Personas, domain.PersonaDating, domain.PersonaSocial)
	case ModuleAesthetic:
		mc.Photos = gc.Photos
		mc.AestheticState = gc.AestheticState
	}
	return mc
}

// clonePersonas copies the persona map, keeping only the listed types (or
// all of them when none is listed). Every fixed type stays present as a key
// so modules can rely on the shape.
func clonePersonas(personas map[domain.PersonaType]*domain.Persona, keep ...domain.PersonaType) map[domain.PersonaType]*domain.Persona {
	keepSet := map[domain.PersonaType]bool{}
	for _, pt := range keep {
		keepSet[pt] = true
	}
	out := map[domain.PersonaType]*domain.Persona{}
	for _, pt := range domain.AllPersonaTypes {
		if len(keep) == 0 || keepSet[pt] {
			out[pt] = personas[pt]
		} else {
			out[pt] = nil
		}
	}
	return out
}

func decodeObject(raw []byte) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}

func decodeEmbedding(raw []byte) []float64 {
	if len(raw) == 0 {
		return nil
	}
	var out []float64
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
