package services

import (
	"context"

	"tresorier/internal/core"
	"tresorier/internal/events"
	"tresorier/internal/log"
	"tresorier/internal/storage"
)

// MemberService orchestrates the association side: cotisations, persons and
// memberships with their cotisation lines.
type MemberService struct {
	storage   *storage.Repository
	publisher *events.Client
	logger    *log.Logger
}

func NewMemberService(storage *storage.Repository, publisher *events.Client, logger *log.Logger) *MemberService {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &MemberService{
		storage:   storage,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentEngine),
	}
}

func (s *MemberService) publish(ctx context.Context, entity, action string, id int64) {
	if err := s.publisher.Publish(ctx, entity, action, id); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish mutation event",
			log.FieldEntity, entity, log.FieldEntityID, id, log.FieldError, err)
	}
}

func (s *MemberService) ListCotisations(ctx context.Context) ([]core.CotisationRow, error) {
	return s.storage.ListCotisations(ctx)
}

func (s *MemberService) GetCotisation(ctx context.Context, id int64) (*core.Cotisation, error) {
	return s.storage.GetCotisation(ctx, id)
}

func (s *MemberService) SaveCotisation(ctx context.Context, c *core.Cotisation) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := s.storage.SaveCotisation(ctx, c); err != nil {
		return err
	}
	s.publish(ctx, events.EntityCotisation, events.ActionSaved, c.ID)
	return nil
}

func (s *MemberService) DeleteCotisation(ctx context.Context, id int64) error {
	if err := s.storage.DeleteCotisation(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.EntityCotisation, events.ActionDeleted, id)
	return nil
}

func (s *MemberService) ListPersons(ctx context.Context, filter core.MemberFilter) ([]core.PersonRow, error) {
	return s.storage.ListPersons(ctx, filter)
}

func (s *MemberService) GetPerson(ctx context.Context, id int64) (*core.Person, error) {
	return s.storage.GetPerson(ctx, id)
}

func (s *MemberService) SavePerson(ctx context.Context, p *core.Person) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.storage.SavePerson(ctx, p); err != nil {
		return err
	}
	s.publish(ctx, events.EntityPerson, events.ActionSaved, p.ID)
	return nil
}

func (s *MemberService) DeletePerson(ctx context.Context, id int64) error {
	if err := s.storage.DeletePerson(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.EntityPerson, events.ActionDeleted, id)
	return nil
}

func (s *MemberService) ListMemberships(ctx context.Context, filter core.MembershipFilter) ([]core.MembershipRow, error) {
	return s.storage.ListMemberships(ctx, filter)
}

func (s *MemberService) GetMembership(ctx context.Context, id int64) (*core.MembershipDetail, error) {
	return s.storage.GetMembership(ctx, id)
}

// SaveMembership runs the composite person, membership and line save.
// Validation happens in storage, where the whole write is one transaction.
func (s *MemberService) SaveMembership(ctx context.Context, in *core.MembershipInput) error {
	if err := s.storage.SaveMembership(ctx, in); err != nil {
		return err
	}
	s.publish(ctx, events.EntityMembership, events.ActionSaved, in.ID)
	return nil
}

func (s *MemberService) DeleteMembership(ctx context.Context, id int64) error {
	if err := s.storage.DeleteMembership(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.EntityMembership, events.ActionDeleted, id)
	return nil
}
