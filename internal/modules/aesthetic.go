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

// aestheticModule distills the aesthetic state and photo set into a single
// guidance document: what to lean into, what to shoot next.
type aestheticModule struct {
	log     *logger.Logger
	content identity.ContentRepo
}

func NewAestheticModule(deps Deps) sync.Module {
	return &aestheticModule{
		log:     deps.Log.With("module", sync.ModuleAesthetic),
		content: deps.Content,
	}
}

func (m *aestheticModule) Name() string { return sync.ModuleAesthetic }

func (m *aestheticModule) Generate(ctx context.Context, userID uuid.UUID, mc *sync.ModuleContext, opts sync.GenerateOptions) (*sync.GenerateResult, error) {
	guidance := map[string]any{
		"style_markers": mc.Preferences.StyleMarkers,
		"photo_count":   len(mc.Photos),
	}
	if styles, ok := mc.AestheticState["preferred_styles"]; ok {
		guidance["lean_into"] = styles
	}
	if palette, ok := mc.AestheticState["palette"]; ok {
		guidance["palette"] = palette
	}
	if len(mc.Photos) == 0 {
		guidance["next_step"] = "add photos to unlock ranking"
	}

	body, err := json.Marshal(guidance)
	if err != nil {
		return nil, fmt.Errorf("encode aesthetic guidance: %w", err)
	}
	rows := []*domain.GeneratedContent{{
		UserID: userID,
		Type:   "aesthetic_guidance",
		Body:   body,
	}}
	if _, err := m.content.Create(dbctx.New(ctx), rows); err != nil {
		return nil, fmt.Errorf("store aesthetic guidance: %w", err)
	}
	return &sync.GenerateResult{ItemsProcessed: len(rows)}, nil
}
