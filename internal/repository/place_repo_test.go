package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/timmy/reelscout/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func samplePlace(externalID string) *domain.Place {
	rating := 4.5
	return &domain.Place{
		ID:          uuid.New().String(),
		Name:        "Blue Bottle Coffee",
		Address:     "300 Webster St, Oakland, CA",
		ExternalID:  externalID,
		Rating:      &rating,
		Specialties: domain.StringArray{"pour over"},
		Category:    domain.CategoryCafe,
		Photos:      domain.StringArray{"ref-1"},
	}
}

func TestPlaceUpsertCreatesOnce(t *testing.T) {
	repo := NewPlaceRepository(newTestDB(t))
	ctx := context.Background()

	first, err := repo.Upsert(ctx, samplePlace("ext-1"))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	// Second resolution of the same external ID must reuse the record.
	second, err := repo.Upsert(ctx, samplePlace("ext-1"))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("Same external ID produced two places: %s vs %s", first.ID, second.ID)
	}

	all, err := repo.List(ctx, "", 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("Expected one place, got %d", len(all))
	}
}

func TestPlaceUpsertMergesSpecialties(t *testing.T) {
	repo := NewPlaceRepository(newTestDB(t))
	ctx := context.Background()

	if _, err := repo.Upsert(ctx, samplePlace("ext-1")); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	update := samplePlace("ext-1")
	update.Specialties = domain.StringArray{"pour over", "new orleans iced"}
	merged, err := repo.Upsert(ctx, update)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if len(merged.Specialties) != 2 {
		t.Fatalf("Specialties = %v, want union of both observations", merged.Specialties)
	}
	if !merged.Specialties.Contains("pour over") || !merged.Specialties.Contains("new orleans iced") {
		t.Errorf("Specialties = %v, missing expected items", merged.Specialties)
	}

	// Duplicate observation must not grow the set.
	again, err := repo.Upsert(ctx, update)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if len(again.Specialties) != 2 {
		t.Errorf("Specialties = %v, duplicates should not accumulate", again.Specialties)
	}
}

func TestPlaceUpsertNeverOverwrites(t *testing.T) {
	repo := NewPlaceRepository(newTestDB(t))
	ctx := context.Background()

	original, err := repo.Upsert(ctx, samplePlace("ext-1"))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	update := samplePlace("ext-1")
	update.Name = "Some Other Name"
	update.Address = "elsewhere"
	merged, err := repo.Upsert(ctx, update)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if merged.Name != original.Name || merged.Address != original.Address {
		t.Errorf("Existing fields were overwritten: %+v", merged)
	}
}

func TestPlaceListByCategory(t *testing.T) {
	repo := NewPlaceRepository(newTestDB(t))
	ctx := context.Background()

	cafe := samplePlace("ext-cafe")
	if _, err := repo.Upsert(ctx, cafe); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	bakery := samplePlace("ext-bakery")
	bakery.Name = "Tartine"
	bakery.Category = domain.CategoryBakery
	if _, err := repo.Upsert(ctx, bakery); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	bakeries, err := repo.List(ctx, domain.CategoryBakery, 10, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(bakeries) != 1 || bakeries[0].Name != "Tartine" {
		t.Errorf("Category filter returned %+v", bakeries)
	}
}

func TestReelProgressLifecycle(t *testing.T) {
	repo := NewReelRepository(newTestDB(t))
	ctx := context.Background()

	reel := &domain.Reel{
		ID:        uuid.New().String(),
		UserID:    "user-1",
		SourceURL: "https://www.instagram.com/reel/Cx1/",
		Status:    domain.ReelStatusPending,
	}
	if err := repo.Create(ctx, reel); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.UpdateProgress(ctx, reel.ID, 45, domain.ReelStatusProcessing); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	got, err := repo.GetByID(ctx, reel.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.ReelStatusProcessing || got.Progress != 45 {
		t.Errorf("Reel = %s/%d, want processing/45", got.Status, got.Progress)
	}

	// Progress-only update must leave status untouched.
	if err := repo.UpdateProgress(ctx, reel.ID, 65, ""); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	got, err = repo.GetByID(ctx, reel.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.ReelStatusProcessing || got.Progress != 65 {
		t.Errorf("Reel = %s/%d, want processing/65", got.Status, got.Progress)
	}

	if err := repo.MarkFailed(ctx, reel.ID, "stage transcribe: whisper unavailable"); err != nil {
		t.Fatalf("MarkFailed failed: %v", err)
	}
	got, err = repo.GetByID(ctx, reel.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Status != domain.ReelStatusFailed || got.Error == "" {
		t.Errorf("Reel = %s (%q), want failed with error", got.Status, got.Error)
	}
	if !got.Terminal() {
		t.Error("Failed reel should be terminal")
	}
}
