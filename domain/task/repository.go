package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Repository provides database operations for tasks.
// Every method runs in its own transaction, committed on success and
// rolled back on error.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new task repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Migrate runs database migrations for the task tables.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&Tag{}, &Task{}, &SubTask{})
}

// Create inserts a task together with its sub-tasks and tag links.
// Tags are matched by name and created when missing.
func (r *Repository) Create(ctx context.Context, task *Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, tagNames(task.Tags))
		if err != nil {
			return err
		}
		task.Tags = tags

		if err := tx.Create(task).Error; err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		created, err := findByID(tx, task.ID)
		if err != nil {
			return err
		}
		*task = *created
		return nil
	})
}

// FindByID retrieves a task by its ID.
func (r *Repository) FindByID(ctx context.Context, id uint) (*Task, error) {
	var task *Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findByID(tx, id)
		if err != nil {
			return err
		}
		task = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// FindAll retrieves all tasks ordered by ID.
func (r *Repository) FindAll(ctx context.Context) ([]Task, error) {
	var tasks []Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := preload(tx).Order("id ASC").Find(&tasks).Error; err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		normalize(&tasks[i])
	}
	if tasks == nil {
		tasks = []Task{}
	}
	return tasks, nil
}

// Update applies a merge-patch to the task with the given ID.
func (r *Repository) Update(ctx context.Context, id uint, patch Patch) (*Task, error) {
	var task *Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findByID(tx, id)
		if err != nil {
			return err
		}

		if cols := patch.columns(); len(cols) > 0 {
			if err := tx.Model(&Task{}).Where("id = ?", id).Updates(cols).Error; err != nil {
				return fmt.Errorf("failed to update task: %w", err)
			}
		}

		if patch.SubTasks.Set {
			if err := replaceSubTasks(tx, id, patch.SubTasks.Value); err != nil {
				return err
			}
		}

		if patch.Tags.Set {
			tags, err := resolveTags(tx, patch.Tags.Value)
			if err != nil {
				return err
			}
			assoc := tx.Model(existing).Association("Tags")
			if len(tags) == 0 {
				err = assoc.Clear()
			} else {
				err = assoc.Replace(tags)
			}
			if err != nil {
				return fmt.Errorf("failed to replace task tags: %w", err)
			}
		}

		task, err = findByID(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// SetStatus changes the status of a task. A non-nil completedAt is written
// alongside it; a nil one leaves the stored completion time untouched.
func (r *Repository) SetStatus(ctx context.Context, id uint, status Status, completedAt *time.Time) (*Task, error) {
	var task *Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findByID(tx, id); err != nil {
			return err
		}

		cols := map[string]any{"status": status}
		if completedAt != nil {
			cols["completed_at"] = *completedAt
		}
		if err := tx.Model(&Task{}).Where("id = ?", id).Updates(cols).Error; err != nil {
			return fmt.Errorf("failed to update task status: %w", err)
		}

		var err error
		task, err = findByID(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task and its sub-tasks and detaches its tags.
// The deleted task, as it was before removal, is returned.
func (r *Repository) Delete(ctx context.Context, id uint) (*Task, error) {
	var task *Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findByID(tx, id)
		if err != nil {
			return err
		}

		if err := tx.Model(existing).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("failed to detach task tags: %w", err)
		}
		if err := tx.Where("task_id = ?", id).Delete(&SubTask{}).Error; err != nil {
			return fmt.Errorf("failed to delete sub-tasks: %w", err)
		}

		result := tx.Delete(&Task{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		task = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ListTags retrieves all tags ordered by name.
func (r *Repository) ListTags(ctx context.Context) ([]Tag, error) {
	tags := []Tag{}
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func preload(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("SubTasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("sub_tasks.position ASC, sub_tasks.id ASC")
		}).
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("tags.name ASC")
		})
}

func findByID(tx *gorm.DB, id uint) (*Task, error) {
	var task Task
	if err := preload(tx).First(&task, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	normalize(&task)
	return &task, nil
}

func replaceSubTasks(tx *gorm.DB, taskID uint, inputs []SubTaskInput) error {
	if err := tx.Where("task_id = ?", taskID).Delete(&SubTask{}).Error; err != nil {
		return fmt.Errorf("failed to clear sub-tasks: %w", err)
	}
	if len(inputs) == 0 {
		return nil
	}
	subTasks := BuildSubTasks(inputs)
	for i := range subTasks {
		subTasks[i].TaskID = taskID
	}
	if err := tx.Create(&subTasks).Error; err != nil {
		return fmt.Errorf("failed to create sub-tasks: %w", err)
	}
	return nil
}

// resolveTags returns the tags named in names, creating any that do not exist.
// Names are trimmed; blanks and duplicates are dropped.
func resolveTags(tx *gorm.DB, names []string) ([]Tag, error) {
	tags := make([]Tag, 0, len(names))
	for _, name := range NormalizeTagNames(names) {
		var tag Tag
		if err := tx.Where(Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, fmt.Errorf("failed to resolve tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// BuildSubTasks converts inputs to sub-task rows positioned in input order.
func BuildSubTasks(inputs []SubTaskInput) []SubTask {
	subTasks := make([]SubTask, 0, len(inputs))
	for i, in := range inputs {
		subTasks = append(subTasks, SubTask{
			Position:  i,
			Title:     strings.TrimSpace(in.Title),
			Completed: in.Completed,
		})
	}
	return subTasks
}

// NormalizeTagNames trims names and drops blanks and duplicates, keeping
// first-seen order.
func NormalizeTagNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func tagNames(tags []Tag) []string {
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return names
}

func normalize(task *Task) {
	if task.SubTasks == nil {
		task.SubTasks = []SubTask{}
	}
	if task.Tags == nil {
		task.Tags = []Tag{}
	}
}
