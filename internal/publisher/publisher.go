package publisher

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gcalevent/internal/auth"
	"gcalevent/internal/models"

	"github.com/google/uuid"
)

// Authorizer hands out a usable credential.
type Authorizer interface {
	Authorize(ctx context.Context) (*auth.Handle, error)
}

// EventCreator inserts one event into the remote calendar.
type EventCreator interface {
	CreateEvent(ctx context.Context, spec models.EventSpec) (*models.CreatedEvent, error)
}

// CreatorFactory builds an EventCreator bound to a credential.
type CreatorFactory func(ctx context.Context, h *auth.Handle) (EventCreator, error)

// Mirror stores a copy of a created event somewhere else.
type Mirror interface {
	Name() string
	Mirror(ctx context.Context, spec models.EventSpec, created *models.CreatedEvent) error
}

// Publisher orchestrates a run: authorize, create the event, then mirror it.
type Publisher struct {
	logger     *slog.Logger
	authorizer Authorizer
	newCreator CreatorFactory
	out        io.Writer
	mirrors    []Mirror
}

// New creates a Publisher. Results are printed to out.
func New(logger *slog.Logger, authorizer Authorizer, newCreator CreatorFactory, out io.Writer, mirrors ...Mirror) *Publisher {
	return &Publisher{
		logger:     logger,
		authorizer: authorizer,
		newCreator: newCreator,
		out:        out,
		mirrors:    mirrors,
	}
}

// Authorize obtains a credential without creating anything.
func (p *Publisher) Authorize(ctx context.Context) (*auth.Handle, error) {
	h, err := p.authorizer.Authorize(ctx)
	if err != nil {
		return nil, fmt.Errorf("authorization failed: %w", err)
	}
	return h, nil
}

// Publish creates the event described by spec. Authorization and creation failures are
// returned; mirror failures are only logged since the event already exists.
func (p *Publisher) Publish(ctx context.Context, spec models.EventSpec) (*models.CreatedEvent, error) {
	h, err := p.Authorize(ctx)
	if err != nil {
		return nil, err
	}

	creator, err := p.newCreator(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}

	created, err := creator.CreateEvent(ctx, spec)
	if err != nil {
		return nil, err
	}

	_, _ = fmt.Fprintf(p.out, "Event created: %s\n", created.ID)
	if created.HTMLLink != "" {
		_, _ = fmt.Fprintln(p.out, created.HTMLLink)
	}

	if len(p.mirrors) > 0 && created.ICalUID == "" {
		p.logger.Warn("Created event has no UID, generating a new one.", "id", created.ID)
		created.ICalUID = uuid.NewString()
	}
	for _, m := range p.mirrors {
		if err := m.Mirror(ctx, spec, created); err != nil {
			p.logger.Warn("Failed to mirror event", "target", m.Name(), "error", err)
			continue
		}
		p.logger.Info("Mirrored event", "target", m.Name())
	}

	return created, nil
}
