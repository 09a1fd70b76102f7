// Package task provides the domain entities and repository for tasks.
package task

import "time"

// Status is the lifecycle stage of a task.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Category classifies a task on the urgent/important grid.
type Category string

const (
	CategoryImportantUrgent    Category = "IU"
	CategoryImportantNotUrgent Category = "INU"
	CategoryUrgent             Category = "U"
	CategoryNotUrgent          Category = "NU"
	CategoryWaiting            Category = "waiting"
	CategoryLongTerm           Category = "long-term"
)

// DefaultCategory is applied when a task is created without one.
const DefaultCategory = CategoryImportantNotUrgent

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryImportantUrgent, CategoryImportantNotUrgent, CategoryUrgent,
		CategoryNotUrgent, CategoryWaiting, CategoryLongTerm:
		return true
	}
	return false
}

// Categories returns every known category in display order.
func Categories() []Category {
	return []Category{
		CategoryImportantUrgent,
		CategoryImportantNotUrgent,
		CategoryUrgent,
		CategoryNotUrgent,
		CategoryWaiting,
		CategoryLongTerm,
	}
}

// Task is the core domain entity.
type Task struct {
	ID          uint       `gorm:"primarykey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Category    Category   `gorm:"size:32;not null;default:INU" json:"category"`
	Details     *string    `json:"details"`
	Outcome     *string    `json:"outcome"`
	Status      Status     `gorm:"size:32;not null;default:open" json:"status"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
	SubTasks    []SubTask  `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"subtasks"`
	Tags        []Tag      `gorm:"many2many:task_tags;" json:"tags"`
}

// TableName returns the table name for Task model.
func (Task) TableName() string {
	return "tasks"
}

// SubTask is a checklist item owned by exactly one task.
type SubTask struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	TaskID    uint   `gorm:"index;not null" json:"-"`
	Position  int    `gorm:"not null;default:0" json:"position"`
	Title     string `gorm:"size:255;not null" json:"title"`
	Completed bool   `gorm:"not null;default:false" json:"completed"`
}

// TableName returns the table name for SubTask model.
func (SubTask) TableName() string {
	return "sub_tasks"
}

// Tag is a shared label; removing it from a task never deletes it.
type Tag struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Name string `gorm:"size:64;uniqueIndex;not null" json:"name"`
}

// TableName returns the table name for Tag model.
func (Tag) TableName() string {
	return "tags"
}

// SubTaskInput describes a sub-task supplied on create or update.
type SubTaskInput struct {
	Title     string `json:"title" validate:"required,notblank,max=255"`
	Completed bool   `json:"completed"`
}

// NewTask holds the fields accepted when creating a task.
type NewTask struct {
	Title    string
	Category Category
	Details  *string
	SubTasks []SubTaskInput
	Tags     []string
}
