package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sorabase/catalog/internal/domain"
	"github.com/sorabase/catalog/internal/infra/database/models"
	"github.com/sorabase/catalog/internal/transform"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	err = db.AutoMigrate(
		&models.RawRecord{},
		&models.TransformAttempt{},
		&models.Work{},
		&models.GameExtension{},
		&models.MovieExtension{},
		&models.TVExtension{},
		&models.WebtoonExtension{},
		&models.WebnovelExtension{},
		&models.PlatformListing{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

// webnovelInput builds a full candidate the way the resolver does.
func webnovelInput(t *testing.T, title, author, platform, platformID string, synopsis *string) domain.ResolveInput {
	t.Helper()
	ext := &models.WebnovelExtension{}
	if err := ext.Assign("author", author); err != nil {
		t.Fatalf("assign author: %v", err)
	}
	return domain.ResolveInput{
		Domain: domain.DomainWebnovel,
		Work: domain.Work{
			ID:       uuid.NewString(),
			Domain:   domain.DomainWebnovel,
			Title:    title,
			Synopsis: synopsis,
		},
		Extension: ext,
		Listing: domain.PlatformListing{
			Platform:   platform,
			PlatformID: platformID,
			Attributes: map[string]any{"source": platform},
			LastSeenAt: time.Now(),
		},
		NormalizedTitle: transform.MergeNormalize(title),
		DomainDoc:       map[string]any{"author": author},
		DomainFields: map[string]domain.DomainFieldSpec{
			"author": {Field: "author", Type: "string"},
		},
	}
}

func movieInput(title, platform, platformID string, attrs map[string]any) domain.ResolveInput {
	return domain.ResolveInput{
		Domain: domain.DomainMovie,
		Work: domain.Work{
			ID:     uuid.NewString(),
			Domain: domain.DomainMovie,
			Title:  title,
		},
		Extension: &models.MovieExtension{},
		Listing: domain.PlatformListing{
			Platform:   platform,
			PlatformID: platformID,
			Attributes: attrs,
			LastSeenAt: time.Now(),
		},
		NormalizedTitle: transform.MergeNormalize(title),
		DomainDoc:       map[string]any{},
		DomainFields:    map[string]domain.DomainFieldSpec{},
	}
}

func TestUpsertCreatesTriple(t *testing.T) {
	repo := NewCatalogRepository(newTestDB(t))
	ctx := context.Background()

	input := webnovelInput(t, "달빛조각사", "남희성", "kakaopage", "kp-1", nil)
	workID, merged, err := repo.Upsert(ctx, input)
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if merged {
		t.Fatalf("first upsert must not merge")
	}

	work, listings, err := repo.GetWork(ctx, workID)
	if err != nil {
		t.Fatalf("get work failed: %v", err)
	}
	if work.Title != "달빛조각사" {
		t.Fatalf("unexpected title %q", work.Title)
	}
	if len(listings) != 1 || listings[0].Platform != "kakaopage" {
		t.Fatalf("expected one kakaopage listing, got %+v", listings)
	}
}

func TestUpsertMergesOnKeyAndTitle(t *testing.T) {
	repo := NewCatalogRepository(newTestDB(t))
	ctx := context.Background()
	synopsis := "회귀한 다크 게이머."

	first, merged, err := repo.Upsert(ctx, webnovelInput(t, "달빛조각사", "남희성", "kakaopage", "kp-1", nil))
	if err != nil || merged {
		t.Fatalf("first upsert: %v merged=%v", err, merged)
	}

	// Same author, normalization-equal title, different platform.
	second, merged, err := repo.Upsert(ctx, webnovelInput(t, "달빛 조각사", "남희성", "naver_series", "ns-9", &synopsis))
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if !merged || second != first {
		t.Fatalf("expected merge into %s, got %s merged=%v", first, second, merged)
	}

	work, listings, err := repo.GetWork(ctx, first)
	if err != nil {
		t.Fatalf("get work failed: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected two listings after merge, got %d", len(listings))
	}
	if work.Title != "달빛조각사" {
		t.Fatalf("merge must not overwrite the title, got %q", work.Title)
	}
	if work.Synopsis == nil || *work.Synopsis != synopsis {
		t.Fatalf("null scalar must be filled on merge, got %v", work.Synopsis)
	}
}

func TestUpsertDoesNotMergeAcrossAuthors(t *testing.T) {
	repo := NewCatalogRepository(newTestDB(t))
	ctx := context.Background()

	first, _, err := repo.Upsert(ctx, webnovelInput(t, "달빛조각사", "남희성", "kakaopage", "kp-1", nil))
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	second, merged, err := repo.Upsert(ctx, webnovelInput(t, "달빛조각사", "다른작가", "naver_series", "ns-9", nil))
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if merged || second == first {
		t.Fatalf("different authors must not merge: %s vs %s merged=%v", first, second, merged)
	}
}

func TestUpsertNeverMergesMovies(t *testing.T) {
	repo := NewCatalogRepository(newTestDB(t))
	ctx := context.Background()

	first, _, err := repo.Upsert(ctx, movieInput("The Matrix", "tmdb", "603", nil))
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	second, merged, err := repo.Upsert(ctx, movieInput("The Matrix", "watcha", "w-603", nil))
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if merged || second == first {
		t.Fatalf("movies must never merge: %s vs %s merged=%v", first, second, merged)
	}
}

func TestUpsertReResolvesExistingPair(t *testing.T) {
	repo := NewCatalogRepository(newTestDB(t))
	ctx := context.Background()

	first, merged, err := repo.Upsert(ctx, movieInput("The Matrix", "tmdb", "603", map[string]any{"voteCount": float64(100)}))
	if err != nil || merged {
		t.Fatalf("first upsert: %v merged=%v", err, merged)
	}

	// Re-crawled payload for the same pair: the listing refreshes on its
	// owning work, no new work, no constraint failure.
	second, merged, err := repo.Upsert(ctx, movieInput("The Matrix", "tmdb", "603", map[string]any{"voteCount": float64(250)}))
	if err != nil {
		t.Fatalf("re-resolution failed: %v", err)
	}
	if second != first || !merged {
		t.Fatalf("expected re-resolution of %s, got %s merged=%v", first, second, merged)
	}

	_, listings, err := repo.GetWork(ctx, first)
	if err != nil {
		t.Fatalf("get work failed: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("expected the single refreshed listing, got %d", len(listings))
	}
	if listings[0].Attributes["voteCount"] != float64(250) {
		t.Fatalf("expected attributes refreshed, got %v", listings[0].Attributes)
	}

	var workCount int64
	repo.db.Model(&models.Work{}).Count(&workCount)
	if workCount != 1 {
		t.Fatalf("re-resolution must not create a second work, got %d", workCount)
	}
}
