package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/event"
)

const eventColumns = `id, name, description, image, ticket_price, start_date, end_date, location, created_at, updated_at`

type eventRepository struct {
	db core.DB
}

var _ event.Repository = (*eventRepository)(nil) // interface compliance check

func NewEventRepository(db core.DB) *eventRepository {
	return &eventRepository{db: db}
}

func (repo eventRepository) CreateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	e.ID = uuid.New().String()
	q := `INSERT INTO event (` + eventColumns + `)
		VALUES (:id, :name, :description, :image, :ticket_price, :start_date, :end_date, :location, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, e); err != nil {
		return event.Event{}, errors.Wrap(err, "inserting event")
	}
	return e, nil
}

func (repo eventRepository) QueryEvents(ctx context.Context, endsAfter time.Time) ([]event.Event, error) {
	events := make([]event.Event, 0)
	var err error
	if endsAfter.IsZero() {
		q := `SELECT ` + eventColumns + ` FROM event ORDER BY start_date, id`
		err = repo.db.SelectContext(ctx, &events, q)
	} else {
		q := `SELECT ` + eventColumns + ` FROM event WHERE end_date >= $1 ORDER BY start_date, id`
		err = repo.db.SelectContext(ctx, &events, q, endsAfter.UTC())
	}
	if err != nil {
		return nil, errors.Wrap(err, "selecting events")
	}
	return events, nil
}

func (repo eventRepository) GetEvent(ctx context.Context, id string) (event.Event, error) {
	if !isUUID(id) {
		return event.Event{}, event.ErrNotFound
	}
	var e event.Event
	q := `SELECT ` + eventColumns + ` FROM event WHERE id = $1`
	if err := repo.db.GetContext(ctx, &e, q, id); err != nil {
		return event.Event{}, trapNoRowsErr(err, event.ErrNotFound, "selecting event")
	}
	return e, nil
}

func (repo eventRepository) UpdateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	if !isUUID(e.ID) {
		return event.Event{}, event.ErrNotFound
	}
	var updated event.Event
	q := `UPDATE event SET name = $2, description = $3, image = $4, ticket_price = $5,
			start_date = $6, end_date = $7, location = $8, updated_at = $9
		WHERE id = $1 RETURNING ` + eventColumns
	err := repo.db.GetContext(ctx, &updated, q, e.ID, e.Name, e.Description, e.Image, e.TicketPrice,
		e.StartDate.UTC(), e.EndDate.UTC(), e.Location, e.UpdatedAt.UTC())
	if err != nil {
		return event.Event{}, trapNoRowsErr(err, event.ErrNotFound, "updating event")
	}
	return updated, nil
}

func (repo eventRepository) DeleteEvent(ctx context.Context, id string) error {
	if !isUUID(id) {
		return event.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM event WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return checkAffected(res, event.ErrNotFound)
}
