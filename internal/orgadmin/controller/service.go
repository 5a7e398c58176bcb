// Package controller implements the core business logic (service layer) for
// companies, departments and employees: it enforces referential and uniqueness
// rules, orchestrates multi-row writes inside a single transaction, and emits
// domain events once a write has committed.
package controller

import (
	"context"

	"github.com/aymens/orgadmin/internal/orgadmin/db"
	"github.com/aymens/orgadmin/internal/orgadmin/events"
	"github.com/aymens/orgadmin/internal/orgadmin/models"
	"github.com/aymens/orgadmin/internal/orgadmin/validation"
)

type EventProducer interface {
	Produce(event events.Event)
}

// Repository defines the transactional entry points into storage. Every
// service operation runs its reads and writes on the repository handed to fn.
type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
	WithReadOnlyTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
}

type settings struct {
	validator       *validation.Validator
	defaultPageSize int
	maxPageSize     int
}

// Option customizes a service.
type Option func(*settings)

// WithValidator replaces the default input validator.
func WithValidator(v *validation.Validator) Option {
	return func(s *settings) {
		s.validator = v
	}
}

// WithPageLimits sets the default and maximum page sizes.
func WithPageLimits(defaultSize, maxSize int) Option {
	return func(s *settings) {
		s.defaultPageSize = defaultSize
		s.maxPageSize = maxSize
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		defaultPageSize: models.DefaultPageSize,
		maxPageSize:     models.MaxPageSize,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.validator == nil {
		s.validator = validation.New()
	}
	return s
}

func (s settings) page(req models.PageRequest) models.PageRequest {
	return req.Normalize(s.defaultPageSize, s.maxPageSize)
}
