package modules

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/glowlabs-ai/glow-backend/internal/data/repos/identity"
	"github.com/glowlabs-ai/glow-backend/internal/domain"
	"github.com/glowlabs-ai/glow-backend/internal/platform/dbctx"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
	"github.com/glowlabs-ai/glow-backend/internal/sync"
)

// bioGeneratorModule writes one bio per persona the user has built, shaped
// by the tone and length preferences learned from feedback.
type bioGeneratorModule struct {
	log     *logger.Logger
	content identity.ContentRepo
}

func NewBioGeneratorModule(deps Deps) sync.Module {
	return &bioGeneratorModule{
		log:     deps.Log.With("module", sync.ModuleBioGenerator),
		content: deps.Content,
	}
}

func (m *bioGeneratorModule) Name() string { return sync.ModuleBioGenerator }

func (m *bioGeneratorModule) Generate(ctx context.Context, userID uuid.UUID, mc *sync.ModuleContext, opts sync.GenerateOptions) (*sync.GenerateResult, error) {
	var rows []*domain.GeneratedContent
	for _, ptype := range domain.AllPersonaTypes {
		persona := mc.Personas[ptype]
		if persona == nil {
			continue
		}
		bio := composeBio(mc, ptype)
		body, err := json.Marshal(map[string]any{
			"persona": string(ptype),
			"bio":     bio,
			"tone":    dominantTone(mc.Preferences),
		})
		if err != nil {
			return nil, fmt.Errorf("encode %s bio: %w", ptype, err)
		}
		rows = append(rows, &domain.GeneratedContent{
			UserID: userID,
			Type:   "bio",
			Body:   body,
		})
	}
	if len(rows) == 0 {
		return &sync.GenerateResult{ItemsProcessed: 0, Meta: map[string]any{"reason": "no personas"}}, nil
	}
	if _, err := m.content.Create(dbctx.New(ctx), rows); err != nil {
		return nil, fmt.Errorf("store bios: %w", err)
	}
	return &sync.GenerateResult{ItemsProcessed: len(rows)}, nil
}

func composeBio(mc *sync.ModuleContext, ptype domain.PersonaType) string {
	name := attr(mc.CoreAttributes, "name", "They")
	headline := attr(mc.CoreAttributes, "headline", "")
	tone := dominantTone(mc.Preferences)

	sentences := []string{
		fmt.Sprintf("%s in a %s register, as their %s self.", name, tone, ptype),
	}
	if headline != "" {
		sentences = append(sentences, headline+".")
	}
	for _, marker := range mc.Preferences.StyleMarkers {
		if len(sentences) >= sentenceBudget(mc.Preferences.LengthPreference) {
			break
		}
		sentences = append(sentences, "Style note: "+marker+".")
	}
	return strings.Join(sentences, " ")
}
