package task

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	domain "github.com/example/jarvis-task-api/domain/task"
	"golang.org/x/sync/singleflight"
)

// Cache is the read-through cache the service consults for single-task reads.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// Service implements the task lifecycle on top of the repository.
type Service struct {
	repo    *domain.Repository
	cache   Cache
	sfGroup singleflight.Group
	now     func() time.Time

	// cacheMu orders cache fills against invalidations; generations counts
	// invalidations per task ID.
	cacheMu     sync.Mutex
	generations map[uint]uint64
}

// NewService creates a new task service. cache may be nil.
func NewService(repo *domain.Repository, cache Cache) *Service {
	return &Service{
		repo:        repo,
		cache:       cache,
		now:         time.Now,
		generations: make(map[uint]uint64),
	}
}

func cacheKey(id uint) string {
	return fmt.Sprintf("task:%d", id)
}

// timestamp returns the current time in UTC at the precision every
// supported database keeps.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create stores a new task with defaults applied: category INU, status open.
func (s *Service) Create(ctx context.Context, in domain.NewTask) (*domain.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.NewInputError("title", "notblank", "must not be blank")
	}
	category := in.Category
	if category == "" {
		category = domain.DefaultCategory
	}
	if !category.Valid() {
		return nil, unknownCategory(category)
	}
	if err := checkSubTasks(in.SubTasks); err != nil {
		return nil, err
	}

	tags := make([]domain.Tag, 0, len(in.Tags))
	for _, name := range domain.NormalizeTagNames(in.Tags) {
		tags = append(tags, domain.Tag{Name: name})
	}

	t := &domain.Task{
		Title:     in.Title,
		Category:  category,
		Details:   in.Details,
		Status:    domain.StatusOpen,
		CreatedAt: s.timestamp(),
		SubTasks:  domain.BuildSubTasks(in.SubTasks),
		Tags:      tags,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	log.Printf("[task] Created task ID=%d", t.ID)
	return t, nil
}

// Get retrieves a task by ID, consulting the cache first when one is set.
// Concurrent misses for the same ID share one database read. A read that
// overlaps a write to the same task is returned but not cached.
func (s *Service) Get(ctx context.Context, id uint) (*domain.Task, error) {
	if s.cache == nil {
		return s.repo.FindByID(ctx, id)
	}

	key := cacheKey(id)
	gen := s.generation(id)

	var cached domain.Task
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("[task] Cache error for ID=%d: %v", id, err)
	}
	if found {
		return &cached, nil
	}

	val, err, _ := s.sfGroup.Do(key, func() (any, error) {
		t, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		s.fill(ctx, id, gen, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*domain.Task), nil
}

func (s *Service) generation(id uint) uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.generations[id]
}

// fill caches t unless the task was invalidated after gen was read.
func (s *Service) fill(ctx context.Context, id uint, gen uint64, t *domain.Task) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.generations[id] != gen {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(id), t); err != nil {
		log.Printf("[task] Warning: failed to cache task ID=%d: %v", id, err)
	}
}

// List returns every task. It always reads the database.
func (s *Service) List(ctx context.Context) ([]domain.Task, error) {
	return s.repo.FindAll(ctx)
}

// Update applies a merge-patch to a task.
func (s *Service) Update(ctx context.Context, id uint, patch domain.Patch) (*domain.Task, error) {
	if patch.Title.Set && strings.TrimSpace(patch.Title.Value) == "" {
		return nil, domain.NewInputError("title", "notblank", "must not be blank")
	}
	if patch.Category.Set && !patch.Category.Value.Valid() {
		return nil, unknownCategory(patch.Category.Value)
	}
	if patch.SubTasks.Set {
		if err := checkSubTasks(patch.SubTasks.Value); err != nil {
			return nil, err
		}
	}

	t, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	log.Printf("[task] Updated task ID=%d", id)
	return t, nil
}

// UpdateStatus sets the status of a task. Moving to done stamps
// completed_at with the current time, replacing any earlier stamp; other
// statuses leave completed_at as it is.
func (s *Service) UpdateStatus(ctx context.Context, id uint, status domain.Status) (*domain.Task, error) {
	if !status.Valid() {
		return nil, domain.NewInputError("status", "oneof", fmt.Sprintf("unknown status %q", status))
	}

	var completedAt *time.Time
	if status == domain.StatusDone {
		now := s.timestamp()
		completedAt = &now
	}

	t, err := s.repo.SetStatus(ctx, id, status, completedAt)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	log.Printf("[task] Task ID=%d status -> %s", id, status)
	return t, nil
}

// Delete removes a task and returns a confirmation naming it.
func (s *Service) Delete(ctx context.Context, id uint) (DeleteTaskResponse, error) {
	t, err := s.repo.Delete(ctx, id)
	if err != nil {
		return DeleteTaskResponse{}, err
	}

	s.invalidate(ctx, id)
	log.Printf("[task] Deleted task ID=%d", id)
	return DeleteTaskResponse{
		ID:      t.ID,
		Title:   t.Title,
		Message: fmt.Sprintf("Task '%s' deleted", t.Title),
	}, nil
}

// ListTags returns every shared tag.
func (s *Service) ListTags(ctx context.Context) ([]domain.Tag, error) {
	return s.repo.ListTags(ctx)
}

func (s *Service) invalidate(ctx context.Context, id uint) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.generations[id]++
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		log.Printf("[task] Warning: failed to invalidate cache for ID=%d: %v", id, err)
	}
}

func checkSubTasks(inputs []domain.SubTaskInput) error {
	for i, in := range inputs {
		if strings.TrimSpace(in.Title) == "" {
			return domain.NewInputError(fmt.Sprintf("subtasks[%d].title", i), "notblank", "must not be blank")
		}
	}
	return nil
}

func unknownCategory(c domain.Category) error {
	return domain.NewInputError("category", "oneof", fmt.Sprintf("unknown category %q", c))
}
