package repos

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/docparity/docparity-backend/internal/logger"
	"github.com/docparity/docparity-backend/internal/types"
)

func newJobRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.JobRun{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedJob(t *testing.T, db *gorm.DB, job *types.JobRun) *types.JobRun {
	t.Helper()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.JobType == "" {
		job.JobType = types.JobTypeExtraction
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	job.UpdatedAt = job.CreatedAt
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func TestClaimNextRunnableNeverClaimsFailedRows(t *testing.T) {
	db := newJobRunDB(t)
	repo := NewJobRunRepo(db, logger.NewNop())
	ctx := context.Background()

	errAt := time.Now().Add(-time.Hour)
	failed := seedJob(t, db, &types.JobRun{
		Status:      types.JobStatusFailed,
		Attempts:    1,
		Error:       "boom",
		ErrorCode:   "extraction_failed",
		LastErrorAt: &errAt,
		CreatedAt:   time.Now().Add(-2 * time.Hour),
	})

	job, err := repo.ClaimNextRunnable(ctx, nil, 2*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if job != nil {
		t.Fatalf("claimed terminal failed row %s", job.ID)
	}

	var stored types.JobRun
	if err := db.First(&stored, "id = ?", failed.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != types.JobStatusFailed {
		t.Fatalf("failed row mutated to status %q", stored.Status)
	}
	if stored.Attempts != 1 {
		t.Fatalf("failed row attempts = %d, want 1", stored.Attempts)
	}
}

func TestClaimNextRunnablePicksOldestQueued(t *testing.T) {
	db := newJobRunDB(t)
	repo := NewJobRunRepo(db, logger.NewNop())
	ctx := context.Background()

	older := seedJob(t, db, &types.JobRun{
		Status:    types.JobStatusQueued,
		CreatedAt: time.Now().Add(-2 * time.Minute),
	})
	seedJob(t, db, &types.JobRun{
		Status:    types.JobStatusQueued,
		CreatedAt: time.Now().Add(-1 * time.Minute),
	})

	job, err := repo.ClaimNextRunnable(ctx, nil, 2*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if job == nil {
		t.Fatal("expected a claimed job")
	}
	if job.ID != older.ID {
		t.Fatalf("claimed %s, want oldest queued %s", job.ID, older.ID)
	}

	var stored types.JobRun
	if err := db.First(&stored, "id = ?", older.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != types.JobStatusRunning {
		t.Fatalf("claimed row status = %q, want running", stored.Status)
	}
	if stored.Attempts != 1 {
		t.Fatalf("claimed row attempts = %d, want 1", stored.Attempts)
	}
}

func TestClaimNextRunnableReclaimsStaleRunning(t *testing.T) {
	db := newJobRunDB(t)
	repo := NewJobRunRepo(db, logger.NewNop())
	ctx := context.Background()

	staleBeat := time.Now().Add(-10 * time.Minute)
	stale := seedJob(t, db, &types.JobRun{
		Status:      types.JobStatusRunning,
		Attempts:    1,
		HeartbeatAt: &staleBeat,
		CreatedAt:   time.Now().Add(-15 * time.Minute),
	})
	freshBeat := time.Now()
	seedJob(t, db, &types.JobRun{
		Status:      types.JobStatusRunning,
		Attempts:    1,
		HeartbeatAt: &freshBeat,
		CreatedAt:   time.Now().Add(-20 * time.Minute),
	})

	job, err := repo.ClaimNextRunnable(ctx, nil, 2*time.Minute)
	if err != nil {
		t.Fatalf("ClaimNextRunnable: %v", err)
	}
	if job == nil {
		t.Fatal("expected the stale running row to be reclaimed")
	}
	if job.ID != stale.ID {
		t.Fatalf("claimed %s, want stale running %s", job.ID, stale.ID)
	}

	if again, err := repo.ClaimNextRunnable(ctx, nil, 2*time.Minute); err != nil {
		t.Fatalf("second claim: %v", err)
	} else if again != nil {
		t.Fatalf("claimed %s with a fresh heartbeat", again.ID)
	}
}

func TestUpdateFieldsUnlessTerminalLeavesTerminalRows(t *testing.T) {
	db := newJobRunDB(t)
	repo := NewJobRunRepo(db, logger.NewNop())
	ctx := context.Background()

	failed := seedJob(t, db, &types.JobRun{
		Status: types.JobStatusFailed,
		Error:  "boom",
	})

	updated, err := repo.UpdateFieldsUnlessTerminal(ctx, nil, failed.ID, map[string]interface{}{
		"status": types.JobStatusCompleted,
	})
	if err != nil {
		t.Fatalf("UpdateFieldsUnlessTerminal: %v", err)
	}
	if updated {
		t.Fatal("terminal failed row was updated")
	}

	var stored types.JobRun
	if err := db.First(&stored, "id = ?", failed.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != types.JobStatusFailed || stored.Error != "boom" {
		t.Fatalf("terminal row changed: status=%q error=%q", stored.Status, stored.Error)
	}
}
