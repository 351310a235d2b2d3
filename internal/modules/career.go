package modules

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/glowlabs-ai/glow-backend/internal/data/repos/identity"
	"github.com/glowlabs-ai/glow-backend/internal/domain"
	"github.com/glowlabs-ai/glow-backend/internal/platform/dbctx"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
	"github.com/glowlabs-ai/glow-backend/internal/sync"
)

// careerModule regenerates the career documents (resume summary, profile
// headline) from the professional persona. Without that persona there is
// nothing to do and the run completes empty.
type careerModule struct {
	log     *logger.Logger
	content identity.ContentRepo
}

func NewCareerModule(deps Deps) sync.Module {
	return &careerModule{
		log:     deps.Log.With("module", sync.ModuleCareer),
		content: deps.Content,
	}
}

func (m *careerModule) Name() string { return sync.ModuleCareer }

func (m *careerModule) Generate(ctx context.Context, userID uuid.UUID, mc *sync.ModuleContext, opts sync.GenerateOptions) (*sync.GenerateResult, error) {
	persona := mc.Personas[domain.PersonaProfessional]
	if persona == nil {
		return &sync.GenerateResult{ItemsProcessed: 0, Meta: map[string]any{"reason": "no professional persona"}}, nil
	}

	var personaContent map[string]any
	if len(persona.Content) > 0 {
		_ = json.Unmarshal(persona.Content, &personaContent)
	}
	role := attr(personaContent, "role", attr(mc.CoreAttributes, "headline", "professional"))

	summary := fmt.Sprintf("%s, presented as a %s with a %s voice.",
		attr(mc.CoreAttributes, "name", "Candidate"), role, dominantTone(mc.Preferences))
	headline := fmt.Sprintf("%s | %s", role, attr(mc.CoreAttributes, "location", "open to relocation"))

	rows := make([]*domain.GeneratedContent, 0, 2)
	for docType, text := range map[string]string{
		"resume_summary":   summary,
		"profile_headline": headline,
	} {
		body, err := json.Marshal(map[string]any{"text": text})
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", docType, err)
		}
		rows = append(rows, &domain.GeneratedContent{
			UserID: userID,
			Type:   docType,
			Body:   body,
		})
	}
	if _, err := m.content.Create(dbctx.New(ctx), rows); err != nil {
		return nil, fmt.Errorf("store career documents: %w", err)
	}
	return &sync.GenerateResult{ItemsProcessed: len(rows)}, nil
}
