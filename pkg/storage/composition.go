package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// State custom type for our enum
type State int

// Enum values for State
const (
	Pending State = 0
	Done    State = 1
	Failed  State = 2
)

// Composition is one persisted generation request together with its
// serialized outputs.
type Composition struct {
	ID        string `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Genre         string  `gorm:"not null;default:''"`
	Key           string  `gorm:"not null;default:''"`
	Mood          string  `gorm:"not null;default:''"`
	Style         string  `gorm:"not null;default:''"`
	Tempo         int     `gorm:"not null;default:0"`
	TimeSignature string  `gorm:"not null;default:''"`
	Complexity    float64 `gorm:"not null;default:0"`
	Instruments   string  `gorm:"not null;default:''"`
	Bars          int     `gorm:"not null;default:0"`
	Seed          int64   `gorm:"not null;default:0"`

	MIDI     []byte `gorm:"type:blob"`
	WAV      []byte `gorm:"type:blob"`
	Warnings string `gorm:"not null;default:''"`
	State    State  `gorm:"not null;default:0"`
	Error    string `gorm:"not null;default:''"`
}

func (s *Store) GetComposition(ctx context.Context, id string) (*Composition, error) {
	var v Composition
	if err := s.db.First(&v, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("storage: failed to get Composition %s: %w", id, err)
	}
	return &v, nil
}

func (s *Store) SetComposition(ctx context.Context, v *Composition) error {
	if err := s.db.Save(v).Error; err != nil {
		return fmt.Errorf("storage: failed to set Composition %s: %w", v.ID, err)
	}
	return nil
}

func (s *Store) DeleteComposition(ctx context.Context, id string) error {
	if err := s.db.Delete(&Composition{ID: id}, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("storage: failed to delete Composition %s: %w", id, err)
	}
	return nil
}

func (s *Store) ListCompositions(ctx context.Context, page, size int, orderBy string, filter ...Filter) ([]*Composition, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * size
	vs := []*Composition{}

	q := s.db.Offset(offset).Limit(size)
	if orderBy != "" {
		q = q.Order(orderBy)
	}
	for _, f := range filter {
		q = q.Where(f.Query, f.Args...)
	}
	if err := q.Find(&vs).Error; err != nil {
		return nil, fmt.Errorf("storage: failed to list Compositions: %w", err)
	}
	return vs, nil
}
