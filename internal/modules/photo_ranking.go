package modules

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/glowlabs-ai/glow-backend/internal/domain"
	"github.com/glowlabs-ai/glow-backend/internal/platform/dbctx"
	"github.com/glowlabs-ai/glow-backend/internal/platform/logger"
	"github.com/glowlabs-ai/glow-backend/internal/data/repos/identity"
	"github.com/glowlabs-ai/glow-backend/internal/sync"
)

// photoRankingModule re-scores the user's photos against their current
// aesthetic state and moves the primary flag to the winner. Scoring is a
// deterministic heuristic; a model-backed scorer plugs in behind the same
// interface.
type photoRankingModule struct {
	log     *logger.Logger
	photos  identity.PhotoRepo
	content identity.ContentRepo
}

func NewPhotoRankingModule(deps Deps) sync.Module {
	return &photoRankingModule{
		log:     deps.Log.With("module", sync.ModulePhotoRanking),
		photos:  deps.Photos,
		content: deps.Content,
	}
}

func (m *photoRankingModule) Name() string { return sync.ModulePhotoRanking }

func (m *photoRankingModule) Generate(ctx context.Context, userID uuid.UUID, mc *sync.ModuleContext, opts sync.GenerateOptions) (*sync.GenerateResult, error) {
	if len(mc.Photos) == 0 {
		return &sync.GenerateResult{ItemsProcessed: 0, Meta: map[string]any{"reason": "no photos"}}, nil
	}

	scores := make(map[uuid.UUID]float64, len(mc.Photos))
	var primaryID uuid.UUID
	best := -1.0
	for _, p := range mc.Photos {
		score := scorePhoto(p, mc.AestheticState)
		scores[p.ID] = score
		if score > best {
			best = score
			primaryID = p.ID
		}
	}

	dbc := dbctx.New(ctx)
	if err := m.photos.UpdateRanking(dbc, userID, scores, primaryID); err != nil {
		return nil, fmt.Errorf("persist photo ranking: %w", err)
	}

	report, err := json.Marshal(map[string]any{"scores": scores, "primary": primaryID})
	if err != nil {
		return nil, fmt.Errorf("encode ranking report: %w", err)
	}
	if _, err := m.content.Create(dbc, []*domain.GeneratedContent{{
		UserID: userID,
		Type:   "photo_ranking",
		Body:   report,
	}}); err != nil {
		return nil, fmt.Errorf("store ranking report: %w", err)
	}

	return &sync.GenerateResult{
		ItemsProcessed: len(mc.Photos),
		Meta:           map[string]any{"primary": primaryID.String()},
	}, nil
}

// scorePhoto blends recency with how well a photo's stored attributes match
// the aesthetic state's preferred styles.
func scorePhoto(p *domain.Photo, aesthetic map[string]any) float64 {
	ageDays := time.Since(p.CreatedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	score := 1.0 / (1.0 + ageDays/30)

	if styles, ok := aesthetic["preferred_styles"].([]any); ok {
		for _, s := range styles {
			style, ok := s.(string)
			if !ok {
				continue
			}
			if strings.Contains(strings.ToLower(p.BucketKey), strings.ToLower(style)) {
				score += 0.25
			}
		}
	}
	if p.IsPrimary {
		// mild stickiness so the primary does not flap between near-ties
		score += 0.05
	}
	return score
}
