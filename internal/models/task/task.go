package task

import (
	"time"
)

// Task - каноническое представление задачи, которое видит клиент
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     string    `json:"userId,omitempty"`
	Status      Status    `json:"status"`
	Completed   bool      `json:"completed"`
	Important   bool      `json:"important"`
	Favorite    bool      `json:"favorite"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Record - задача в том виде, в котором она лежит в хранилище.
// Status может содержать устаревшее значение Important.
type Record struct {
	ID          string
	Title       string
	Description string
	OwnerID     string
	Status      LegacyStatus
	Completed   bool
	Important   bool
	Favorite    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Status - каноническое значение статуса
type Status string

const StatusIncomplete Status = "Incomplete"
const StatusComplete Status = "Complete"

func (s Status) Valid() bool {
	return s == StatusIncomplete || s == StatusComplete
}

// LegacyStatus - статус на границе хранилища и SetStatus.
// Кроме канонических значений допускает старый Important.
type LegacyStatus string

const LegacyIncomplete LegacyStatus = LegacyStatus(StatusIncomplete)
const LegacyComplete LegacyStatus = LegacyStatus(StatusComplete)
const LegacyImportant LegacyStatus = "Important"

func (s LegacyStatus) Valid() bool {
	return s == LegacyIncomplete || s == LegacyComplete || s == LegacyImportant
}

// IsLegacy сообщает, что запись ещё не мигрирована
func (r *Record) IsLegacy() bool {
	return r.Status == LegacyImportant
}

// Patch - частичное обновление записи, nil означает "не менять"
type Patch struct {
	Title       *string
	Description *string
	OwnerID     *string
	Status      *LegacyStatus
	Completed   *bool
	Important   *bool
	Favorite    *bool
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.OwnerID == nil &&
		p.Status == nil && p.Completed == nil && p.Important == nil && p.Favorite == nil
}

// Apply переносит заданные поля патча в запись
func (p Patch) Apply(r *Record) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.OwnerID != nil {
		r.OwnerID = *p.OwnerID
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Completed != nil {
		r.Completed = *p.Completed
	}
	if p.Important != nil {
		r.Important = *p.Important
	}
	if p.Favorite != nil {
		r.Favorite = *p.Favorite
	}
}
