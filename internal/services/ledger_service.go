package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

// Publisher sends ledger change events.
type Publisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// LedgerService orchestrates writes to the store and the change events that
// follow them. A failed publish never fails the write.
type LedgerService struct {
	repo      ledger.Repository
	publisher Publisher
	logger    *log.Logger
}

func NewLedgerService(repo ledger.Repository, publisher Publisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &LedgerService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentServices),
	}
}

// Record validates and stores one transaction.
func (s *LedgerService) Record(ctx context.Context, t core.Transaction) (int64, error) {
	t.Category = strings.TrimSpace(t.Category)
	if err := t.Validate(); err != nil {
		return 0, err
	}

	id, err := s.repo.Insert(ctx, t)
	if err != nil {
		return 0, &core.DataAccessError{Op: "insert " + t.Kind.String(), Err: err}
	}

	s.logger.InfoContext(ctx, "Transaction recorded",
		log.NewFields().WithTransaction(t.Kind.String(), id, t.Username, t.Category, t.Amount.StringFixed(2)).ToSlice()...)

	event := amqp.NewLedgerEvent(amqp.EventRecordCreated, t.Username, t.Kind.String())
	event.RecordID = id
	event.Date = t.Date.String()
	event.Category = t.Category
	s.publish(ctx, event)

	return id, nil
}

// Delete removes one record of username.
func (s *LedgerService) Delete(ctx context.Context, kind core.Kind, username string, id int64) error {
	if err := s.repo.Delete(ctx, kind, username, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return err
		}
		return &core.DataAccessError{Op: "delete " + kind.String(), Err: err}
	}

	event := amqp.NewLedgerEvent(amqp.EventRecordDeleted, username, kind.String())
	event.RecordID = id
	s.publish(ctx, event)
	return nil
}

// Categories lists the categories of a collection with username's usage.
func (s *LedgerService) Categories(ctx context.Context, kind core.Kind, username string) ([]core.CategoryUsage, error) {
	usage, err := s.repo.ListCategories(ctx, kind, username)
	if err != nil {
		return nil, &core.DataAccessError{Op: "list categories", Err: err}
	}
	return usage, nil
}

func (s *LedgerService) AddCategory(ctx context.Context, kind core.Kind, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyCategory
	}
	if err := s.repo.AddCategory(ctx, kind, name); err != nil {
		if errors.Is(err, core.ErrCategoryExists) {
			return err
		}
		return &core.DataAccessError{Op: "add category", Err: err}
	}
	return nil
}

// RenameCategory renames a category for every record that uses it. An
// unknown name yields an *UnknownCategoryError with the closest known name.
func (s *LedgerService) RenameCategory(ctx context.Context, kind core.Kind, from, to string) (int64, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return 0, core.ErrEmptyCategory
	}
	moved, err := s.repo.RenameCategory(ctx, kind, from, to)
	if err != nil {
		return 0, s.categoryError(ctx, kind, from, err)
	}

	event := amqp.NewLedgerEvent(amqp.EventCategoryRenamed, "", kind.String())
	event.Category = to
	event.Count = int(moved)
	s.publish(ctx, event)
	return moved, nil
}

// DeleteCategory removes a category and moves its records to reassignTo, or
// to core.Uncategorized when reassignTo is blank.
func (s *LedgerService) DeleteCategory(ctx context.Context, kind core.Kind, name, reassignTo string) (int64, error) {
	moved, err := s.repo.DeleteCategory(ctx, kind, name, strings.TrimSpace(reassignTo))
	if err != nil {
		return 0, s.categoryError(ctx, kind, name, err)
	}

	event := amqp.NewLedgerEvent(amqp.EventCategoryDeleted, "", kind.String())
	event.Category = name
	event.Count = int(moved)
	s.publish(ctx, event)
	return moved, nil
}

func (s *LedgerService) categoryError(ctx context.Context, kind core.Kind, name string, err error) error {
	if !errors.Is(err, core.ErrNotFound) {
		return &core.DataAccessError{Op: "update category", Err: err}
	}
	unknown := &UnknownCategoryError{Name: name}
	if usage, listErr := s.repo.ListCategories(ctx, kind, ""); listErr == nil {
		names := make([]string, len(usage))
		for i, u := range usage {
			names[i] = u.Name
		}
		unknown.Suggestion = Suggest(name, names)
	}
	return unknown
}

func (s *LedgerService) publish(ctx context.Context, event *amqp.LedgerEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP client not available, skipping ledger event", "type", event.Type)
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldEventID, event.ID,
			"type", event.Type,
			log.FieldError, err)
	}
}

// Ping checks that the store is reachable.
func (s *LedgerService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Close closes the store and, when it has one, the publisher.
func (s *LedgerService) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}
