// Package questions manages the interview Q&A records kept per
// (stack, district, company) scope.
package questions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"codeceylon/portal/internal/catalog"
	"codeceylon/portal/internal/live"
	"codeceylon/portal/internal/model"
	"codeceylon/portal/internal/scope"
)

var (
	ErrNoScope        = errors.New("scope not fully selected")
	ErrUnknownStack   = errors.New("unknown stack")
	ErrUnknownCompany = errors.New("unknown company")
)

// Store persists Q&A records. Every operation is bound to a resolved scope;
// records from one scope are invisible to every other.
type Store interface {
	Insert(ctx context.Context, sc scope.Scope, rec model.QARecord) error
	ListByScope(ctx context.Context, sc scope.Scope) ([]model.QARecord, error)
	Update(ctx context.Context, sc scope.Scope, id, question, answer string, updatedAt time.Time) error
	Delete(ctx context.Context, sc scope.Scope, id string) error
}

type Service struct {
	store  Store
	broker live.Broker
	now    func() time.Time
}

func NewService(store Store, broker live.Broker) *Service {
	return &Service{store: store, broker: broker, now: time.Now}
}

func (s *Service) checkScope(sc scope.Scope) error {
	if !sc.Valid() {
		return ErrNoScope
	}
	if _, ok := catalog.StackByID(sc.Stack); !ok {
		return ErrUnknownStack
	}
	if _, ok := catalog.CompanyByID(sc.District, sc.CompanyID); !ok {
		return ErrUnknownCompany
	}
	return nil
}

// List returns the records under the scope. An unresolved scope is not an
// error: there is simply nothing to show.
func (s *Service) List(ctx context.Context, sc scope.Scope) ([]model.QARecord, error) {
	if !sc.Valid() {
		return []model.QARecord{}, nil
	}
	if err := s.checkScope(sc); err != nil {
		return nil, err
	}
	records, err := s.store.ListByScope(ctx, sc)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if records == nil {
		records = []model.QARecord{}
	}
	return records, nil
}

// Create adds a record to the scope. District and company name are copied
// into the record so it stays self-describing when read back.
func (s *Service) Create(ctx context.Context, sc scope.Scope, question, answer string) (model.QARecord, error) {
	if err := s.checkScope(sc); err != nil {
		return model.QARecord{}, err
	}
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" {
		return model.QARecord{}, &model.ValidationError{Field: "question"}
	}
	if answer == "" {
		return model.QARecord{}, &model.ValidationError{Field: "answer"}
	}

	company, _ := catalog.CompanyByID(sc.District, sc.CompanyID)
	rec := model.QARecord{
		ID:          uuid.NewString(),
		Question:    question,
		Answer:      answer,
		District:    sc.District,
		CompanyName: company.Name,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Insert(ctx, sc, rec); err != nil {
		return model.QARecord{}, fmt.Errorf("insert question: %w", err)
	}
	s.notify(ctx, sc)
	return rec, nil
}

// Update rewrites question and answer of a record in the scope. The record
// must exist under this exact scope; the same id under another scope is a
// different record.
func (s *Service) Update(ctx context.Context, sc scope.Scope, id, question, answer string) error {
	if err := s.checkScope(sc); err != nil {
		return err
	}
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if id == "" {
		return &model.ValidationError{Field: "questionId"}
	}
	if question == "" {
		return &model.ValidationError{Field: "question"}
	}
	if answer == "" {
		return &model.ValidationError{Field: "answer"}
	}

	if err := s.store.Update(ctx, sc, id, question, answer, s.now().UTC()); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("update question: %w", err)
	}
	s.notify(ctx, sc)
	return nil
}

// Delete removes a record from the scope.
func (s *Service) Delete(ctx context.Context, sc scope.Scope, id string) error {
	if err := s.checkScope(sc); err != nil {
		return err
	}
	if id == "" {
		return &model.ValidationError{Field: "questionId"}
	}
	if err := s.store.Delete(ctx, sc, id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("delete question: %w", err)
	}
	s.notify(ctx, sc)
	return nil
}

// Watch opens a change feed for the scope. Callers re-list on every signal.
func (s *Service) Watch(ctx context.Context, sc scope.Scope) (live.Subscription, error) {
	if err := s.checkScope(sc); err != nil {
		return nil, err
	}
	return s.broker.Subscribe(ctx, sc.Channel())
}

// notify is best effort: a missed wake-up costs a delayed refresh, not data.
func (s *Service) notify(ctx context.Context, sc scope.Scope) {
	if err := s.broker.Publish(ctx, sc.Channel()); err != nil {
		log.Warn().Err(err).Str("channel", sc.Channel()).Msg("publish change signal failed")
	}
}
