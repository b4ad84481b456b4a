// internal/api/job/store_test.go
package job

import (
	"errors"
	"testing"
	"time"

	"github.com/newthinker/prism/internal/core"
)

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(100, time.Hour)

	job := store.Create("analysis")
	if job.ID == "" {
		t.Error("expected job ID")
	}
	if job.Status != StatusPending {
		t.Errorf("expected pending, got %s", job.Status)
	}

	retrieved, err := store.Get(job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if retrieved.ID != job.ID {
		t.Error("IDs don't match")
	}
}

func TestStore_Update(t *testing.T) {
	store := NewStore(100, time.Hour)
	job := store.Create("analysis")

	err := store.Update(job.ID, func(j *Job) {
		j.Status = StatusRunning
		j.Progress = 50
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	retrieved, _ := store.Get(job.ID)
	if retrieved.Status != StatusRunning {
		t.Errorf("expected running, got %s", retrieved.Status)
	}
	if retrieved.Progress != 50 {
		t.Errorf("expected 50, got %d", retrieved.Progress)
	}
}

func TestStore_MaxSize(t *testing.T) {
	store := NewStore(2, time.Hour)

	job1 := store.Create("analysis")
	store.Create("analysis")
	store.Create("analysis") // Should evict job1

	_, err := store.Get(job1.ID)
	if err == nil {
		t.Error("expected job1 to be evicted")
	}
}

func TestStore_NotFound(t *testing.T) {
	store := NewStore(100, time.Hour)

	_, err := store.Get("nonexistent")
	if !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestStore_List(t *testing.T) {
	store := NewStore(100, time.Hour)
	store.Create("analysis")
	store.Create("batch")

	jobs := store.List()
	if len(jobs) != 2 {
		t.Errorf("expected 2 jobs, got %d", len(jobs))
	}
}

func TestStore_CountActive(t *testing.T) {
	store := NewStore(100, time.Hour)
	a := store.Create("analysis")
	store.Create("analysis")

	store.Update(a.ID, func(j *Job) { j.Status = StatusComplete })

	if got := store.CountActive(); got != 1 {
		t.Errorf("expected 1 active job, got %d", got)
	}
}

func TestStore_Cleanup(t *testing.T) {
	store := NewStore(100, time.Millisecond)
	done := store.Create("analysis")
	pending := store.Create("analysis")

	store.Update(done.ID, func(j *Job) { j.Status = StatusComplete })
	time.Sleep(5 * time.Millisecond)

	removed := store.Cleanup()
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	if _, err := store.Get(done.ID); err == nil {
		t.Error("expected completed job to be cleaned up")
	}
	if _, err := store.Get(pending.ID); err != nil {
		t.Error("expected pending job to survive cleanup")
	}
}
