package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/glowlabs-ai/glow-backend/internal/data/repos/testutil"
	"github.com/glowlabs-ai/glow-backend/internal/domain"
	"github.com/glowlabs-ai/glow-backend/internal/platform/dbctx"
)

func TestProfileRepoSyncLock(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.WithTx(context.Background(), tx)

	repo := NewProfileRepo(db, testutil.Logger(t))
	userID := uuid.New()

	if got, err := repo.GetByUserID(dbc, userID); err != nil || got != nil {
		t.Fatalf("GetByUserID before create: err=%v got=%v", err, got)
	}

	profile := &domain.IdentityProfile{
		UserID:         userID,
		CoreAttributes: datatypes.JSON([]byte(`{"name":"Sam"}`)),
		LearningState:  datatypes.JSON([]byte(`{}`)),
	}
	if _, err := repo.Create(dbc, profile); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByUserID(dbc, userID)
	if err != nil || got == nil {
		t.Fatalf("GetByUserID: err=%v got=%v", err, got)
	}
	if got.SyncStatus != domain.SyncStatusIdle {
		t.Fatalf("new profile should be idle, got %q", got.SyncStatus)
	}

	ok, err := repo.AcquireSyncLock(dbc, userID)
	if err != nil || !ok {
		t.Fatalf("AcquireSyncLock #1: err=%v ok=%v", err, ok)
	}
	ok, err = repo.AcquireSyncLock(dbc, userID)
	if err != nil || ok {
		t.Fatalf("AcquireSyncLock #2 should lose the CAS: err=%v ok=%v", err, ok)
	}

	syncedAt := time.Now().UTC().Truncate(time.Second)
	if err := repo.ReleaseSyncLock(dbc, userID, &syncedAt); err != nil {
		t.Fatalf("ReleaseSyncLock: %v", err)
	}
	got, err = repo.GetByUserID(dbc, userID)
	if err != nil || got == nil {
		t.Fatalf("reload: err=%v", err)
	}
	if got.SyncStatus != domain.SyncStatusIdle {
		t.Fatalf("release should reset status, got %q", got.SyncStatus)
	}
	if got.LastSyncedAt == nil || !got.LastSyncedAt.Equal(syncedAt) {
		t.Fatalf("release should record last_synced_at, got %v", got.LastSyncedAt)
	}

	// forced release of a stale lock keeps the old sync time
	if ok, _ := repo.AcquireSyncLock(dbc, userID); !ok {
		t.Fatalf("re-acquire after release should succeed")
	}
	if err := repo.ReleaseSyncLock(dbc, userID, nil); err != nil {
		t.Fatalf("forced ReleaseSyncLock: %v", err)
	}
	got, _ = repo.GetByUserID(dbc, userID)
	if got.LastSyncedAt == nil || !got.LastSyncedAt.Equal(syncedAt) {
		t.Fatalf("forced release must not touch last_synced_at, got %v", got.LastSyncedAt)
	}
}

func TestPhotoAndContextQueries(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.WithTx(context.Background(), tx)
	log := testutil.Logger(t)

	userID := uuid.New()
	now := time.Now().UTC()

	photos := NewPhotoRepo(db, log)
	if _, err := photos.Create(dbc, []*domain.Photo{
		{UserID: userID, URL: "a", CreatedAt: now.Add(-3 * time.Hour)},
		{UserID: userID, URL: "primary", IsPrimary: true, CreatedAt: now.Add(-5 * time.Hour)},
		{UserID: userID, URL: "b", CreatedAt: now.Add(-1 * time.Hour)},
	}); err != nil {
		t.Fatalf("seed photos: %v", err)
	}
	ordered, err := photos.ListByUserOrdered(dbc, userID)
	if err != nil || len(ordered) != 3 {
		t.Fatalf("ListByUserOrdered: err=%v len=%d", err, len(ordered))
	}
	if !ordered[0].IsPrimary || ordered[1].URL != "b" || ordered[2].URL != "a" {
		t.Fatalf("wrong order: %v %v %v", ordered[0].URL, ordered[1].URL, ordered[2].URL)
	}

	content := NewContentRepo(db, log)
	var rows []*domain.GeneratedContent
	for i := 0; i < 12; i++ {
		rows = append(rows, &domain.GeneratedContent{
			UserID:    userID,
			Type:      "bio",
			CreatedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}
	if _, err := content.Create(dbc, rows); err != nil {
		t.Fatalf("seed content: %v", err)
	}
	summaries, err := content.ListRecentSummaries(dbc, userID, 10)
	if err != nil {
		t.Fatalf("ListRecentSummaries: %v", err)
	}
	if len(summaries) != 10 {
		t.Fatalf("expected last 10, got %d", len(summaries))
	}
	if summaries[0].CreatedAt.Before(summaries[9].CreatedAt) {
		t.Fatalf("summaries should be newest first")
	}
}
