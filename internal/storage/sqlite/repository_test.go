package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/trendscout/internal/models"
	"github.com/trendscout/internal/storage"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()

	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	if err := repo.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := repo.Seed(context.Background()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	return repo
}

func testItem(sourceID uint, externalID string) *models.Item {
	return &models.Item{
		SourceID:        sourceID,
		ExternalID:      externalID,
		Title:           "acme/" + externalID,
		URL:             "https://github.com/acme/" + externalID,
		PopularityScore: 50,
		PrimaryCategory: "framework",
		TrendingDate:    time.Now(),
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	tags, err := repo.ListTags(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	count := len(tags)
	if count == 0 {
		t.Fatal("seed produced no tags")
	}

	if err := repo.Seed(ctx); err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}
	tags, err = repo.ListTags(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != count {
		t.Errorf("second seed changed tag count: %d -> %d", count, len(tags))
	}

	src, err := repo.GetSourceByName(ctx, "github")
	if err != nil {
		t.Fatal(err)
	}
	if src == nil {
		t.Fatal("github source not seeded")
	}
}

func TestItemUpsertKey(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	item := testItem(1, "repo-1")
	if err := repo.CreateItem(ctx, item); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetItemBySourceAndExternalID(ctx, 1, "repo-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != item.ID {
		t.Fatalf("lookup by upsert key failed: %+v", got)
	}

	// Unknown key resolves to nil without error
	missing, err := repo.GetItemBySourceAndExternalID(ctx, 1, "nope")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("got %+v, want nil", missing)
	}

	// Same external ID under another source is a distinct item
	other := testItem(2, "repo-1")
	if err := repo.CreateItem(ctx, other); err != nil {
		t.Errorf("same external ID under a different source rejected: %v", err)
	}

	// Duplicate key is rejected by the unique index
	dup := testItem(1, "repo-1")
	if err := repo.CreateItem(ctx, dup); err == nil {
		t.Error("duplicate (source, external) pair accepted")
	}
}

func TestReplaceAutoTags(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	item := testItem(1, "repo-1")
	if err := repo.CreateItem(ctx, item); err != nil {
		t.Fatal(err)
	}

	// Manual association that must survive re-classification
	langchain, err := repo.GetTagByName(ctx, "langchain")
	if err != nil || langchain == nil {
		t.Fatalf("langchain tag missing from catalog: %v", err)
	}
	manual := models.ItemTag{
		ItemID:     item.ID,
		TagID:      langchain.ID,
		Confidence: 1,
		Source:     models.ItemTagSourceManual,
	}
	if err := repo.db.Create(&manual).Error; err != nil {
		t.Fatal(err)
	}

	matches := []models.TagMatch{
		{TagName: "rag", Confidence: 0.8, Source: models.TagSourceKeyword},
		{TagName: "langchain", Confidence: 0.9, Source: models.TagSourceKeyword},
		{TagName: "not-in-catalog", Confidence: 0.9, Source: models.TagSourceKeyword},
	}
	if err := repo.ReplaceAutoTags(ctx, item.ID, matches); err != nil {
		t.Fatal(err)
	}

	tags, err := repo.GetItemTags(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}

	bySource := make(map[string]int)
	byName := make(map[string]string)
	for _, it := range tags {
		bySource[it.Source]++
		if it.Tag != nil {
			byName[it.Tag.Name] = it.Source
		}
	}

	if bySource[models.ItemTagSourceManual] != 1 {
		t.Errorf("manual associations = %d, want 1", bySource[models.ItemTagSourceManual])
	}
	if byName["langchain"] != models.ItemTagSourceManual {
		t.Errorf("manual langchain association was replaced: %v", byName)
	}
	if byName["rag"] != models.ItemTagSourceAuto {
		t.Errorf("keyword match not stored as auto: %v", byName)
	}
	if _, ok := byName["not-in-catalog"]; ok {
		t.Error("unknown tag name was persisted")
	}

	// Second replacement swaps the auto set wholesale
	if err := repo.ReplaceAutoTags(ctx, item.ID, []models.TagMatch{
		{TagName: "chatbot", Confidence: 0.6, Source: models.TagSourceDescription},
	}); err != nil {
		t.Fatal(err)
	}
	tags, err = repo.GetItemTags(ctx, item.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 { // manual langchain + auto chatbot
		t.Fatalf("got %d associations, want 2: %+v", len(tags), tags)
	}
}

func TestDeleteStaleItems(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -60)

	stale := testItem(1, "stale")
	stale.PopularityScore = 2
	stale.CreatedAt = old
	popular := testItem(1, "popular")
	popular.PopularityScore = 80
	popular.CreatedAt = old
	fresh := testItem(1, "fresh")
	fresh.PopularityScore = 2

	for _, item := range []*models.Item{stale, popular, fresh} {
		if err := repo.CreateItem(ctx, item); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := repo.DeleteStaleItems(ctx, time.Now().AddDate(0, 0, -30), 5)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	if got, _ := repo.GetItemBySourceAndExternalID(ctx, 1, "stale"); got != nil {
		t.Error("stale unpopular item survived")
	}
	if got, _ := repo.GetItemBySourceAndExternalID(ctx, 1, "popular"); got == nil {
		t.Error("popular item was deleted despite age")
	}
	if got, _ := repo.GetItemBySourceAndExternalID(ctx, 1, "fresh"); got == nil {
		t.Error("fresh item was deleted")
	}
}

func TestCleanupUnusedTags(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	item := testItem(1, "repo-1")
	if err := repo.CreateItem(ctx, item); err != nil {
		t.Fatal(err)
	}
	if err := repo.ReplaceAutoTags(ctx, item.ID, []models.TagMatch{
		{TagName: "rag", Confidence: 0.8, Source: models.TagSourceKeyword},
	}); err != nil {
		t.Fatal(err)
	}

	deleted, err := repo.CleanupUnusedTags(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if deleted == 0 {
		t.Error("expected unused non-featured tags to be deleted")
	}

	// Referenced tag survives
	if tag, _ := repo.GetTagByName(ctx, "rag"); tag == nil {
		t.Error("referenced tag was deleted")
	}
	// Featured tags survive even when unused
	if tag, _ := repo.GetTagByName(ctx, "langchain"); tag == nil {
		t.Error("featured tag was deleted")
	}
}

func TestListItemsFilters(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	a := testItem(1, "a")
	a.PopularityScore = 90
	b := testItem(1, "b")
	b.PopularityScore = 20
	b.PrimaryCategory = "application"
	for _, item := range []*models.Item{a, b} {
		if err := repo.CreateItem(ctx, item); err != nil {
			t.Fatal(err)
		}
	}

	filter := storage.DefaultItemFilter()
	filter.MinPopularity = 50
	items, err := repo.ListItems(ctx, filter)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ExternalID != "a" {
		t.Errorf("MinPopularity filter: %+v", items)
	}

	filter = storage.DefaultItemFilter()
	filter.Categories = []string{"application"}
	items, err = repo.ListItems(ctx, filter)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ExternalID != "b" {
		t.Errorf("Categories filter: %+v", items)
	}

	filter = storage.DefaultItemFilter()
	items, err = repo.ListItems(ctx, filter)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].PopularityScore < items[1].PopularityScore {
		t.Errorf("default sort not popularity desc: %+v", items)
	}
}

func TestJobLifecyclePersistence(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	job := &models.ProcessingJob{
		SourceID:  1,
		JobType:   "fetch",
		Status:    models.JobStatusRunning,
		StartedAt: time.Now(),
		Metadata:  models.JSON{"timespan": "daily"},
	}
	if err := repo.CreateJob(ctx, job); err != nil {
		t.Fatal(err)
	}
	if job.ID == 0 {
		t.Fatal("job ID not assigned")
	}

	done := time.Now()
	job.Status = models.JobStatusCompleted
	job.CompletedAt = &done
	job.ItemsProcessed = 4
	if err := repo.UpdateJob(ctx, job); err != nil {
		t.Fatal(err)
	}

	status := models.JobStatusCompleted
	jobs, err := repo.ListJobs(ctx, storage.JobFilter{Status: &status})
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 || jobs[0].ItemsProcessed != 4 {
		t.Errorf("jobs = %+v", jobs)
	}

	status = models.JobStatusFailed
	jobs, err = repo.ListJobs(ctx, storage.JobFilter{Status: &status})
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 0 {
		t.Errorf("failed filter returned %d jobs", len(jobs))
	}
}
