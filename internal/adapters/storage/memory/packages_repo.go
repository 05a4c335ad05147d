package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/domain/packages"
)

type packageRepo struct {
	mu        sync.RWMutex
	packages  map[string]packages.ServicePackage
	purchases map[string]packages.CustomerPackage
}

func NewPackageRepo() packages.Repository {
	return &packageRepo{
		packages:  make(map[string]packages.ServicePackage),
		purchases: make(map[string]packages.CustomerPackage),
	}
}

func (r *packageRepo) CreatePackage(ctx context.Context, p packages.ServicePackage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errs.Invalid("id", "required")
	}
	if _, exists := r.packages[p.ID]; exists {
		return errs.ErrConflict
	}
	r.packages[p.ID] = p
	return nil
}

func (r *packageRepo) UpdatePackage(ctx context.Context, p packages.ServicePackage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.packages[p.ID]; !exists {
		return errs.NotFound("service package", p.ID)
	}
	r.packages[p.ID] = p
	return nil
}

func (r *packageRepo) GetPackage(ctx context.Context, id string) (packages.ServicePackage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.packages[id]
	if !ok {
		return packages.ServicePackage{}, errs.NotFound("service package", id)
	}
	return p, nil
}

func (r *packageRepo) ListPackages(ctx context.Context, activeOnly bool) ([]packages.ServicePackage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]packages.ServicePackage, 0, len(r.packages))
	for _, p := range r.packages {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *packageRepo) DeletePackage(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.packages[id]; !ok {
		return errs.NotFound("service package", id)
	}
	// mismo comportamiento que la FK en postgres
	for _, cp := range r.purchases {
		if cp.PackageID == id {
			return errs.ErrConflict
		}
	}
	delete(r.packages, id)
	return nil
}

func (r *packageRepo) CreateCustomerPackage(ctx context.Context, c packages.CustomerPackage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(c.ID) == "" {
		return errs.Invalid("id", "required")
	}
	if _, exists := r.purchases[c.ID]; exists {
		return errs.ErrConflict
	}
	r.purchases[c.ID] = cloneCustomerPackage(c)
	return nil
}

func (r *packageRepo) GetCustomerPackage(ctx context.Context, id string) (packages.CustomerPackage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.purchases[id]
	if !ok {
		return packages.CustomerPackage{}, errs.NotFound("customer package", id)
	}
	return cloneCustomerPackage(c), nil
}

func (r *packageRepo) ListCustomerPackages(ctx context.Context, f packages.CustomerFilter) ([]packages.CustomerPackage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.filterPurchases(f, func(packages.CustomerPackage) bool { return true })
	sort.Slice(out, func(i, j int) bool { return out[i].PurchasedAt.After(out[j].PurchasedAt) })
	return out, nil
}

func (r *packageRepo) ActiveCredits(ctx context.Context, now time.Time, f packages.CustomerFilter) ([]packages.CustomerPackage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := r.filterPurchases(f, func(c packages.CustomerPackage) bool { return c.Active(now) })
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out, nil
}

// ConsumeCredit verifica y descuenta bajo el mismo lock.
func (r *packageRepo) ConsumeCredit(ctx context.Context, id, appointmentID string, now time.Time) (packages.CustomerPackage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.purchases[id]
	if !ok {
		return packages.CustomerPackage{}, errs.NotFound("customer package", id)
	}
	if err := c.CheckConsume(now, appointmentID); err != nil {
		return packages.CustomerPackage{}, err
	}
	c.RemainingUses--
	c.UsedAppointments = append(slices.Clone(c.UsedAppointments), appointmentID)
	r.purchases[id] = c
	return cloneCustomerPackage(c), nil
}

func (r *packageRepo) filterPurchases(f packages.CustomerFilter, keep func(packages.CustomerPackage) bool) []packages.CustomerPackage {
	out := make([]packages.CustomerPackage, 0)
	for _, c := range r.purchases {
		if f.OwnerID != "" && c.OwnerID != f.OwnerID {
			continue
		}
		if f.PetID != "" && c.PetID != f.PetID {
			continue
		}
		if !keep(c) {
			continue
		}
		out = append(out, cloneCustomerPackage(c))
	}
	return out
}

func cloneCustomerPackage(c packages.CustomerPackage) packages.CustomerPackage {
	c.UsedAppointments = slices.Clone(c.UsedAppointments)
	if c.UsedAppointments == nil {
		c.UsedAppointments = []string{}
	}
	return c
}
