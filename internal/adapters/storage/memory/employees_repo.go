package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"petshop-manager/internal/domain/employees"
	"petshop-manager/internal/domain/errs"
)

type employeeRepo struct {
	mu   sync.RWMutex
	byID map[string]employees.Employee

	onDelete func(ctx context.Context, id string) // ver Store
}

func NewEmployeeRepo() employees.Repository {
	return &employeeRepo{byID: make(map[string]employees.Employee)}
}

func (r *employeeRepo) Create(ctx context.Context, e employees.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(e.ID) == "" {
		return errs.Invalid("id", "required")
	}
	if _, exists := r.byID[e.ID]; exists {
		return errs.ErrConflict
	}
	e.Departments = slices.Clone(e.Departments)
	r.byID[e.ID] = e
	return nil
}

func (r *employeeRepo) Update(ctx context.Context, e employees.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[e.ID]; !exists {
		return errs.NotFound("employee", e.ID)
	}
	e.Departments = slices.Clone(e.Departments)
	r.byID[e.ID] = e
	return nil
}

func (r *employeeRepo) GetByID(ctx context.Context, id string) (employees.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return employees.Employee{}, errs.NotFound("employee", id)
	}
	e.Departments = slices.Clone(e.Departments)
	return e, nil
}

func (r *employeeRepo) List(ctx context.Context, f employees.ListFilter) ([]employees.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]employees.Employee, 0)
	for _, e := range r.byID {
		if f.ActiveOnly && !e.Active {
			continue
		}
		if f.DepartmentID != "" && !e.ServesDepartment(f.DepartmentID) {
			continue
		}
		e.Departments = slices.Clone(e.Departments)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *employeeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return errs.NotFound("employee", id)
	}
	delete(r.byID, id)
	if r.onDelete != nil {
		r.onDelete(ctx, id)
	}
	return nil
}
