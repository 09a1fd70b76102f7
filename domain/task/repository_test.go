package task

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates a file-backed SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "tasks.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	if err := NewRepository(db).Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func newTestTask(title string) *Task {
	return &Task{
		Title:     title,
		Category:  DefaultCategory,
		Status:    StatusOpen,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func strPtr(s string) *string {
	return &s
}

func TestRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	task := newTestTask("Buy milk")
	task.SubTasks = BuildSubTasks([]SubTaskInput{{Title: "check fridge"}, {Title: "go to shop"}})
	task.Tags = []Tag{{Name: "home"}, {Name: "errands"}}

	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if task.ID == 0 {
		t.Fatal("expected store-assigned ID")
	}
	if len(task.SubTasks) != 2 {
		t.Fatalf("expected 2 sub-tasks, got %d", len(task.SubTasks))
	}
	if task.SubTasks[0].Title != "check fridge" || task.SubTasks[1].Title != "go to shop" {
		t.Errorf("sub-tasks out of order: %+v", task.SubTasks)
	}
	if len(task.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(task.Tags))
	}
	if task.Tags[0].Name != "errands" || task.Tags[1].Name != "home" {
		t.Errorf("expected tags sorted by name, got %+v", task.Tags)
	}
}

func TestRepository_Create_ReusesExistingTags(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	first := newTestTask("first")
	first.Tags = []Tag{{Name: "work"}}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	second := newTestTask("second")
	second.Tags = []Tag{{Name: " work "}, {Name: "work"}}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	var count int64
	if err := db.Model(&Tag{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count tags: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 tag row, got %d", count)
	}
	if len(second.Tags) != 1 || second.Tags[0].ID != first.Tags[0].ID {
		t.Errorf("expected second task to reuse tag %d, got %+v", first.Tags[0].ID, second.Tags)
	}
}

func TestRepository_FindByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	task := newTestTask("FindByID Test")
	task.Details = strPtr("some details")
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}

	t.Run("existing task", func(t *testing.T) {
		found, err := repo.FindByID(ctx, task.ID)
		if err != nil {
			t.Fatalf("FindByID() error = %v", err)
		}
		if found.Title != task.Title {
			t.Errorf("expected title %q, got %q", task.Title, found.Title)
		}
		if found.Details == nil || *found.Details != "some details" {
			t.Errorf("expected details to round-trip, got %v", found.Details)
		}
		if !found.CreatedAt.Equal(task.CreatedAt) {
			t.Errorf("expected created_at %v, got %v", task.CreatedAt, found.CreatedAt)
		}
		if found.SubTasks == nil || found.Tags == nil {
			t.Error("expected empty, non-nil relation slices")
		}
	})

	t.Run("non-existent task", func(t *testing.T) {
		_, err := repo.FindByID(ctx, task.ID+100)
		if err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRepository_FindAll(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	t.Run("empty database", func(t *testing.T) {
		tasks, err := repo.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll() error = %v", err)
		}
		if tasks == nil || len(tasks) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", tasks)
		}
	})

	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, newTestTask("Task "+string(rune('A'+i)))); err != nil {
			t.Fatalf("failed to create test task: %v", err)
		}
	}

	t.Run("insertion order", func(t *testing.T) {
		tasks, err := repo.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll() error = %v", err)
		}
		if len(tasks) != 3 {
			t.Fatalf("expected 3 tasks, got %d", len(tasks))
		}
		for i, want := range []string{"Task A", "Task B", "Task C"} {
			if tasks[i].Title != want {
				t.Errorf("tasks[%d].Title = %q, want %q", i, tasks[i].Title, want)
			}
		}
	})
}

func TestRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	task := newTestTask("Original")
	task.Details = strPtr("original details")
	task.SubTasks = BuildSubTasks([]SubTaskInput{{Title: "old step"}})
	task.Tags = []Tag{{Name: "keep"}}
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}

	t.Run("only supplied fields change", func(t *testing.T) {
		updated, err := repo.Update(ctx, task.ID, Patch{Outcome: Some(strPtr("shipped"))})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Outcome == nil || *updated.Outcome != "shipped" {
			t.Errorf("expected outcome %q, got %v", "shipped", updated.Outcome)
		}
		if updated.Title != "Original" {
			t.Errorf("title changed to %q", updated.Title)
		}
		if updated.Details == nil || *updated.Details != "original details" {
			t.Errorf("details changed to %v", updated.Details)
		}
		if len(updated.SubTasks) != 1 || len(updated.Tags) != 1 {
			t.Errorf("relations changed: %+v %+v", updated.SubTasks, updated.Tags)
		}
	})

	t.Run("explicit empty and null values apply", func(t *testing.T) {
		updated, err := repo.Update(ctx, task.ID, Patch{
			Details: Some[*string](nil),
			Outcome: Some(strPtr("")),
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if updated.Details != nil {
			t.Errorf("expected details cleared, got %q", *updated.Details)
		}
		if updated.Outcome == nil || *updated.Outcome != "" {
			t.Errorf("expected empty outcome, got %v", updated.Outcome)
		}
	})

	t.Run("replace sub-tasks and tags", func(t *testing.T) {
		updated, err := repo.Update(ctx, task.ID, Patch{
			SubTasks: Some([]SubTaskInput{{Title: "one", Completed: true}, {Title: "two"}}),
			Tags:     Some([]string{"new"}),
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if len(updated.SubTasks) != 2 || updated.SubTasks[0].Title != "one" || !updated.SubTasks[0].Completed {
			t.Errorf("unexpected sub-tasks: %+v", updated.SubTasks)
		}
		if len(updated.Tags) != 1 || updated.Tags[0].Name != "new" {
			t.Errorf("unexpected tags: %+v", updated.Tags)
		}

		var tagCount int64
		db.Model(&Tag{}).Count(&tagCount)
		if tagCount != 2 {
			t.Errorf("expected detached tag to survive, got %d tags", tagCount)
		}
	})

	t.Run("clear tags", func(t *testing.T) {
		updated, err := repo.Update(ctx, task.ID, Patch{Tags: Some([]string{})})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if len(updated.Tags) != 0 {
			t.Errorf("expected no tags, got %+v", updated.Tags)
		}
	})

	t.Run("non-existent task", func(t *testing.T) {
		_, err := repo.Update(ctx, task.ID+100, Patch{Title: Some("nope")})
		if err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestRepository_SetStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	task := newTestTask("status")
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}

	done := time.Now().UTC().Truncate(time.Microsecond)
	updated, err := repo.SetStatus(ctx, task.ID, StatusDone, &done)
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if updated.Status != StatusDone {
		t.Errorf("expected status %q, got %q", StatusDone, updated.Status)
	}
	if updated.CompletedAt == nil || !updated.CompletedAt.Equal(done) {
		t.Errorf("expected completed_at %v, got %v", done, updated.CompletedAt)
	}

	reopened, err := repo.SetStatus(ctx, task.ID, StatusOpen, nil)
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if reopened.CompletedAt == nil {
		t.Error("expected completed_at to be left untouched")
	}

	if _, err := repo.SetStatus(ctx, task.ID+100, StatusDone, &done); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	task := newTestTask("To Be Deleted")
	task.SubTasks = BuildSubTasks([]SubTaskInput{{Title: "step"}})
	task.Tags = []Tag{{Name: "shared"}}
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}

	t.Run("delete existing task", func(t *testing.T) {
		deleted, err := repo.Delete(ctx, task.ID)
		if err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if deleted.Title != "To Be Deleted" {
			t.Errorf("expected deleted title, got %q", deleted.Title)
		}

		if _, err := repo.FindByID(ctx, task.ID); err != ErrNotFound {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}

		var subCount, tagCount, linkCount int64
		db.Model(&SubTask{}).Count(&subCount)
		db.Model(&Tag{}).Count(&tagCount)
		db.Table("task_tags").Count(&linkCount)
		if subCount != 0 {
			t.Errorf("expected sub-tasks removed, got %d", subCount)
		}
		if tagCount != 1 {
			t.Errorf("expected shared tag to survive, got %d", tagCount)
		}
		if linkCount != 0 {
			t.Errorf("expected tag links removed, got %d", linkCount)
		}
	})

	t.Run("delete non-existent task", func(t *testing.T) {
		if _, err := repo.Delete(ctx, task.ID); err != ErrNotFound {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestNormalizeTagNames(t *testing.T) {
	got := NormalizeTagNames([]string{" a", "b", "", "a", "  ", "c "})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeTagNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NormalizeTagNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
