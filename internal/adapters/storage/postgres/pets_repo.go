package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/domain/pets"
)

const petsTable = "pets"

var petColumns = []string{
	"id", "owner_id", "name", "species", "breed", "size", "birth_date", "photo_url",
	"allergies", "behaviors", "notes", "created_at", "updated_at",
}

type petRow struct {
	ID        string     `db:"id"`
	OwnerID   string     `db:"owner_id"`
	Name      string     `db:"name"`
	Species   string     `db:"species"`
	Breed     string     `db:"breed"`
	Size      *string    `db:"size"`
	BirthDate *time.Time `db:"birth_date"`
	PhotoURL  string     `db:"photo_url"`
	Allergies []string   `db:"allergies"`
	Behaviors []byte     `db:"behaviors"`
	Notes     string     `db:"notes"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
}

func (r petRow) toDomain() (pets.Pet, error) {
	p := pets.Pet{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Name:      r.Name,
		Species:   pets.Species(r.Species),
		Breed:     r.Breed,
		Size:      pets.Size(deref(r.Size)),
		BirthDate: r.BirthDate,
		PhotoURL:  r.PhotoURL,
		Allergies: r.Allergies,
		Notes:     r.Notes,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if len(r.Behaviors) > 0 {
		if err := json.Unmarshal(r.Behaviors, &p.Behaviors); err != nil {
			return pets.Pet{}, fmt.Errorf("pet %s: decode behaviors: %v: %w", r.ID, err, errs.ErrBackend)
		}
	}
	return p, nil
}

func encodeBehaviors(b []pets.Behavior) ([]byte, error) {
	if b == nil {
		b = []pets.Behavior{}
	}
	return json.Marshal(b)
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type PetsRepo struct {
	db DB
}

var _ pets.Repository = (*PetsRepo)(nil)

func NewPetsRepo(db DB) *PetsRepo {
	return &PetsRepo{db: db}
}

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	behaviors, err := encodeBehaviors(p.Behaviors)
	if err != nil {
		return err
	}
	q := psql.Insert(petsTable).Columns(petColumns...).Values(
		p.ID, p.OwnerID, p.Name, string(p.Species), p.Breed, nullIfEmpty(string(p.Size)), p.BirthDate,
		p.PhotoURL, nonNilStrings(p.Allergies), behaviors, p.Notes, p.CreatedAt, p.UpdatedAt,
	)
	_, err = execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	return mapError(err, "pet", p.ID)
}

// Update no toca owner_id.
func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	behaviors, err := encodeBehaviors(p.Behaviors)
	if err != nil {
		return err
	}
	q := psql.Update(petsTable).SetMap(map[string]any{
		"name":       p.Name,
		"species":    string(p.Species),
		"breed":      p.Breed,
		"size":       nullIfEmpty(string(p.Size)),
		"birth_date": p.BirthDate,
		"photo_url":  p.PhotoURL,
		"allergies":  nonNilStrings(p.Allergies),
		"behaviors":  behaviors,
		"notes":      p.Notes,
		"updated_at": p.UpdatedAt,
	}).Where(squirrel.Eq{"id": p.ID})

	n, err := execAffected(ctx, QuerierFromCtx(ctx, r.db), q)
	if err != nil {
		return mapError(err, "pet", p.ID)
	}
	if n == 0 {
		return errs.NotFound("pet", p.ID)
	}
	return nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	var row petRow
	q := psql.Select(petColumns...).From(petsTable).Where(squirrel.Eq{"id": id})
	if err := getOne(ctx, QuerierFromCtx(ctx, r.db), &row, q); err != nil {
		return pets.Pet{}, mapError(err, "pet", id)
	}
	return row.toDomain()
}

func (r *PetsRepo) ListByOwner(ctx context.Context, ownerID string) ([]pets.Pet, error) {
	return r.Search(ctx, pets.SearchFilter{OwnerID: ownerID})
}

func (r *PetsRepo) Search(ctx context.Context, f pets.SearchFilter) ([]pets.Pet, error) {
	q := psql.Select(petColumns...).From(petsTable).OrderBy("lower(name) ASC", "id ASC")
	if f.OwnerID != "" {
		q = q.Where(squirrel.Eq{"owner_id": f.OwnerID})
	}
	if f.Species != "" {
		q = q.Where(squirrel.Eq{"species": string(f.Species)})
	}
	if query := strings.TrimSpace(f.Query); query != "" {
		pat := likePattern(query)
		q = q.Where(squirrel.Or{squirrel.ILike{"name": pat}, squirrel.ILike{"breed": pat}})
	}

	var rows []petRow
	if err := selectAll(ctx, QuerierFromCtx(ctx, r.db), &rows, q); err != nil {
		return nil, mapError(err, "pet", "search")
	}
	out := make([]pets.Pet, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, QuerierFromCtx(ctx, r.db), petsTable, "pet", id)
}
