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

// datingModule builds dating-app content from the dating persona, falling
// back to the social persona when no dating persona exists yet.
type datingModule struct {
	log     *logger.Logger
	content identity.ContentRepo
}

func NewDatingModule(deps Deps) sync.Module {
	return &datingModule{
		log:     deps.Log.With("module", sync.ModuleDating),
		content: deps.Content,
	}
}

func (m *datingModule) Name() string { return sync.ModuleDating }

func (m *datingModule) Generate(ctx context.Context, userID uuid.UUID, mc *sync.ModuleContext, opts sync.GenerateOptions) (*sync.GenerateResult, error) {
	persona := mc.Personas[domain.PersonaDating]
	source := string(domain.PersonaDating)
	if persona == nil {
		persona = mc.Personas[domain.PersonaSocial]
		source = string(domain.PersonaSocial)
	}
	if persona == nil {
		return &sync.GenerateResult{ItemsProcessed: 0, Meta: map[string]any{"reason": "no dating or social persona"}}, nil
	}

	profile := map[string]any{
		"source_persona": source,
		"bio":            composeBio(mc, domain.PersonaDating),
		"photo_count":    len(mc.Photos),
	}
	if len(mc.Photos) > 0 {
		profile["lead_photo"] = mc.Photos[0].ID
	}
	body, err := json.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("encode dating profile: %w", err)
	}

	rows := []*domain.GeneratedContent{{
		UserID: userID,
		Type:   "dating_profile",
		Body:   body,
	}}
	if _, err := m.content.Create(dbctx.New(ctx), rows); err != nil {
		return nil, fmt.Errorf("store dating profile: %w", err)
	}
	return &sync.GenerateResult{ItemsProcessed: len(rows), Meta: map[string]any{"source_persona": source}}, nil
}
