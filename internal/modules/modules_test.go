package modules

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/glowlabs-ai/glow-backend/internal/data/repos/identity"
	"github.com/glowlabs-ai/glow-backend/internal/data/repos/testutil"
	"github.com/glowlabs-ai/glow-backend/internal/domain"
	"github.com/glowlabs-ai/glow-backend/internal/platform/dbctx"
	"github.com/glowlabs-ai/glow-backend/internal/sync"
)

func newDeps(t *testing.T) (Deps, identity.PhotoRepo, identity.ContentRepo) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	photos := identity.NewPhotoRepo(db, log)
	content := identity.NewContentRepo(db, log)
	return Deps{Log: log, Photos: photos, Content: content}, photos, content
}

func TestRegisterAllCoversEveryModule(t *testing.T) {
	deps, _, _ := newDeps(t)
	reg := RegisterAll(deps)
	for _, name := range sync.AllModules {
		mod, ok := reg[name]
		require.True(t, ok, name)
		assert.Equal(t, name, mod.Name())
	}
}

func TestPhotoRankingPersistsScoresAndPrimary(t *testing.T) {
	deps, photoRepo, _ := newDeps(t)
	userID := uuid.New()
	dbc := dbctx.New(context.Background())

	old := &domain.Photo{ID: uuid.New(), UserID: userID, BucketKey: "studio/old.jpg", CreatedAt: time.Now().Add(-90 * 24 * time.Hour)}
	fresh := &domain.Photo{ID: uuid.New(), UserID: userID, BucketKey: "candid/fresh.jpg", CreatedAt: time.Now().Add(-time.Hour)}
	_, err := photoRepo.Create(dbc, []*domain.Photo{old, fresh})
	require.NoError(t, err)

	mod := NewPhotoRankingModule(deps)
	res, err := mod.Generate(context.Background(), userID, &sync.ModuleContext{
		UserID: userID,
		Module: sync.ModulePhotoRanking,
		Photos: []*domain.Photo{old, fresh},
	}, sync.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ItemsProcessed)

	ranked, err := photoRepo.ListByUserOrdered(dbc, userID)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, fresh.ID, ranked[0].ID, "newest photo wins the primary slot")
	assert.True(t, ranked[0].IsPrimary)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
}

func TestPhotoRankingWithNoPhotos(t *testing.T) {
	deps, _, _ := newDeps(t)
	mod := NewPhotoRankingModule(deps)
	res, err := mod.Generate(context.Background(), uuid.New(), &sync.ModuleContext{}, sync.GenerateOptions{})
	require.NoError(t, err, "an empty photo set is not a failure")
	assert.Zero(t, res.ItemsProcessed)
}

func TestBioGeneratorWritesOneBioPerPersona(t *testing.T) {
	deps, _, contentRepo := newDeps(t)
	userID := uuid.New()

	mc := &sync.ModuleContext{
		UserID:         userID,
		Module:         sync.ModuleBioGenerator,
		CoreAttributes: map[string]any{"name": "Ari", "headline": "Designer in Oslo"},
		Personas: map[domain.PersonaType]*domain.Persona{
			domain.PersonaDating:       nil,
			domain.PersonaSocial:       {ID: uuid.New(), UserID: userID, Type: domain.PersonaSocial, Content: datatypes.JSON([]byte(`{}`))},
			domain.PersonaProfessional: {ID: uuid.New(), UserID: userID, Type: domain.PersonaProfessional, Content: datatypes.JSON([]byte(`{}`))},
			domain.PersonaCreative:     nil,
		},
		Preferences: domain.DerivedPreferences{
			ToneWeights:      map[string]float64{"witty": 3, "professional": 1},
			LengthPreference: "short",
			StyleMarkers:     []string{"no emoji"},
		},
	}

	mod := NewBioGeneratorModule(deps)
	res, err := mod.Generate(context.Background(), userID, mc, sync.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ItemsProcessed, "only built personas get a bio")

	summaries, err := contentRepo.ListRecentSummaries(dbctx.New(context.Background()), userID, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	for _, s := range summaries {
		assert.Equal(t, "bio", s.Type)
	}
}

func TestCareerModuleNeedsProfessionalPersona(t *testing.T) {
	deps, _, contentRepo := newDeps(t)
	userID := uuid.New()
	mod := NewCareerModule(deps)

	res, err := mod.Generate(context.Background(), userID, &sync.ModuleContext{
		Personas: map[domain.PersonaType]*domain.Persona{},
	}, sync.GenerateOptions{})
	require.NoError(t, err)
	assert.Zero(t, res.ItemsProcessed)

	res, err = mod.Generate(context.Background(), userID, &sync.ModuleContext{
		CoreAttributes: map[string]any{"name": "Ari"},
		Personas: map[domain.PersonaType]*domain.Persona{
			domain.PersonaProfessional: {ID: uuid.New(), UserID: userID, Type: domain.PersonaProfessional, Content: datatypes.JSON([]byte(`{"role":"staff engineer"}`))},
		},
	}, sync.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ItemsProcessed)

	summaries, err := contentRepo.ListRecentSummaries(dbctx.New(context.Background()), userID, 10)
	require.NoError(t, err)
	types := map[string]bool{}
	for _, s := range summaries {
		types[s.Type] = true
	}
	assert.True(t, types["resume_summary"])
	assert.True(t, types["profile_headline"])
}

func TestDatingModuleFallsBackToSocialPersona(t *testing.T) {
	deps, _, _ := newDeps(t)
	userID := uuid.New()
	mod := NewDatingModule(deps)

	res, err := mod.Generate(context.Background(), userID, &sync.ModuleContext{
		Personas: map[domain.PersonaType]*domain.Persona{
			domain.PersonaSocial: {ID: uuid.New(), UserID: userID, Type: domain.PersonaSocial},
		},
	}, sync.GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ItemsProcessed)
	assert.Equal(t, string(domain.PersonaSocial), res.Meta["source_persona"])
}

func TestDominantToneIsStable(t *testing.T) {
	prefs := domain.DerivedPreferences{ToneWeights: map[string]float64{"warm": 2, "bold": 2}}
	// equal weights resolve alphabetically, every run
	for i := 0; i < 5; i++ {
		assert.Equal(t, "bold", dominantTone(prefs))
	}
}
