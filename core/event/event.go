// Package event manages the cafe's events (concerts, tastings, workshops).
package event

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("event not found")
)

type Event struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Image       string    `json:"image" db:"image"`
	TicketPrice float64   `json:"ticket_price" db:"ticket_price"`
	StartDate   time.Time `json:"start_date" db:"start_date"` // UTC
	EndDate     time.Time `json:"end_date" db:"end_date"`     // UTC
	Location    string    `json:"location" db:"location"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC
}

type NewEvent struct {
	Name        string    `json:"name" validate:"required,max=200"`
	Description string    `json:"description" validate:"max=2000"`
	Image       string    `json:"image" validate:"omitempty,url"`
	TicketPrice float64   `json:"ticket_price" validate:"gte=0"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	Location    string    `json:"location" validate:"required,max=200"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Name = core.CleanString(ne.Name)
	ne.Description = core.CleanString(ne.Description)
	ne.Image = core.CleanString(ne.Image)
	ne.Location = core.CleanString(ne.Location)
	ne.StartDate = ne.StartDate.UTC()
	ne.EndDate = ne.EndDate.UTC()
	return validate.Struct(ne)
}

// UpdateEvent replaces every editable field of an Event.
type UpdateEvent NewEvent

func (ue *UpdateEvent) Validate(validate *validator.Validate) error {
	return (*NewEvent)(ue).Validate(validate)
}

type QueryFilter struct {
	Upcoming bool `query:"upcoming"` // only events that have not ended yet
}

type (
	Repository interface {
		CreateEvent(ctx context.Context, e Event) (Event, error)
		// QueryEvents returns the matching events sorted by start date.
		QueryEvents(ctx context.Context, endsAfter time.Time) ([]Event, error)
		GetEvent(ctx context.Context, id string) (Event, error)
		UpdateEvent(ctx context.Context, e Event) (Event, error)
		DeleteEvent(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ne NewEvent) (Event, error) {
	now := NowFunc().UTC()
	e, err := svc.repo.CreateEvent(ctx, Event{
		Name:        ne.Name,
		Description: ne.Description,
		Image:       ne.Image,
		TicketPrice: ne.TicketPrice,
		StartDate:   ne.StartDate,
		EndDate:     ne.EndDate,
		Location:    ne.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Event{}, errors.Wrap(err, "creating event")
	}
	return e, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	var endsAfter time.Time
	if filter.Upcoming {
		endsAfter = NowFunc().UTC()
	}
	events, err := svc.repo.QueryEvents(ctx, endsAfter)
	if err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	return events, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEvent(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, ue UpdateEvent) (Event, error) {
	return svc.repo.UpdateEvent(ctx, Event{
		ID:          id,
		Name:        ue.Name,
		Description: ue.Description,
		Image:       ue.Image,
		TicketPrice: ue.TicketPrice,
		StartDate:   ue.StartDate,
		EndDate:     ue.EndDate,
		Location:    ue.Location,
		UpdatedAt:   NowFunc().UTC(),
	})
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteEvent(ctx, id)
}
