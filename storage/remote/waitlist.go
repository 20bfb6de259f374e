package remote

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/coursehub/core/waitlist"
)

var waitlistFields = []string{"Name", "Tags", "email", "programSlug", "created_at"}

type waitlistRecord struct {
	ID          int       `mapstructure:"Id"`
	Email       string    `mapstructure:"email"`
	ProgramSlug string    `mapstructure:"programSlug"`
	CreatedAt   time.Time `mapstructure:"created_at"`
}

func (r waitlistRecord) toEntry() waitlist.Entry {
	return waitlist.Entry{ID: r.ID, Email: r.Email, ProgramSlug: r.ProgramSlug, CreatedAt: r.CreatedAt}
}

func decodeEntries(recs []Record) ([]waitlist.Entry, error) {
	entries := make([]waitlist.Entry, 0, len(recs))
	for _, rec := range recs {
		var r waitlistRecord
		if err := decode(rec, &r); err != nil {
			return nil, err
		}
		entries = append(entries, r.toEntry())
	}
	return entries, nil
}

type waitlistRepository struct {
	client *Client
}

var _ waitlist.Repository = (*waitlistRepository)(nil) // interface compliance check

func NewWaitlistRepository(client *Client) waitlist.Repository {
	return &waitlistRepository{client: client}
}

// Create fails with waitlist.ErrAlreadyOnWaitlist if the email already waits for the program.
func (repo *waitlistRepository) Create(ctx context.Context, entry waitlist.Entry) (waitlist.Entry, error) {
	exists, err := repo.Exists(ctx, entry.Email, entry.ProgramSlug)
	if err != nil {
		return waitlist.Entry{}, errors.Wrap(err, "checking waitlist")
	}
	if exists {
		return waitlist.Entry{}, waitlist.ErrAlreadyOnWaitlist
	}

	rec, err := repo.client.Create(ctx, tableWaitlist, Record{
		"Name":        entry.Email,
		"Tags":        "",
		"email":       entry.Email,
		"programSlug": entry.ProgramSlug,
		"created_at":  timestamp(entry.CreatedAt),
	})
	if err != nil {
		return waitlist.Entry{}, err
	}
	entries, err := decodeEntries([]Record{rec})
	if err != nil {
		return waitlist.Entry{}, err
	}
	saved := entries[0]
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = entry.CreatedAt
	}
	return saved, nil
}

func (repo *waitlistRepository) Exists(ctx context.Context, email, programSlug string) (bool, error) {
	recs, err := repo.client.Fetch(ctx, tableWaitlist, Query{
		Fields: []string{"email"},
		Where:  []Where{equalTo("email", email), equalTo("programSlug", programSlug)},
	})
	if err != nil {
		return false, err
	}
	return len(recs) > 0, nil
}

func (repo *waitlistRepository) List(ctx context.Context, filter waitlist.QueryFilter) ([]waitlist.Entry, error) {
	q := Query{Fields: waitlistFields, OrderBy: []OrderBy{{FieldName: "created_at", SortType: sortDesc}}}
	if filter.ProgramSlug != "" {
		q.Where = []Where{equalTo("programSlug", filter.ProgramSlug)}
	}
	recs, err := repo.client.Fetch(ctx, tableWaitlist, q)
	if err != nil {
		return nil, err
	}
	return decodeEntries(recs)
}

func (repo *waitlistRepository) Get(ctx context.Context, id int) (waitlist.Entry, error) {
	rec, err := repo.client.Get(ctx, tableWaitlist, id, waitlistFields, waitlist.ErrNotFound)
	if err != nil {
		return waitlist.Entry{}, err
	}
	entries, err := decodeEntries([]Record{rec})
	if err != nil {
		return waitlist.Entry{}, err
	}
	return entries[0], nil
}

func (repo *waitlistRepository) Delete(ctx context.Context, id int) error {
	return repo.client.Delete(ctx, tableWaitlist, id, waitlist.ErrNotFound)
}
