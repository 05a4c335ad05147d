package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"petshop-manager/internal/domain/appointments"
	"petshop-manager/internal/domain/catalog"
	"petshop-manager/internal/domain/finance"
	"petshop-manager/internal/domain/packages"
)

type Agenda interface {
	Today(ctx context.Context) ([]appointments.Appointment, error)
	PendingCheckIn(ctx context.Context) ([]appointments.Appointment, error)
	InProgress(ctx context.Context) ([]appointments.Appointment, error)
}

type Credits interface {
	ActiveCredits(ctx context.Context, f packages.CustomerFilter) ([]packages.CustomerPackage, error)
}

type Finance interface {
	Summary(ctx context.Context, r finance.Range) (finance.Summary, error)
}

// Overview es la foto del día que muestra la pantalla inicial.
type Overview struct {
	TodayCount          int
	PendingCheckInCount int
	InProgressCount     int
	ActiveCreditsCount  int

	// TodayByDepartment incluye todos los departamentos, con cero si no hay citas.
	TodayByDepartment map[catalog.DepartmentID]int

	Month      finance.Range
	MonthTotal finance.Summary

	GeneratedAt time.Time
}

type Service struct {
	agenda  Agenda
	credits Credits
	finance Finance
	loc     *time.Location
	now     func() time.Time
}

func NewService(agenda Agenda, credits Credits, fin Finance, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{agenda: agenda, credits: credits, finance: fin, loc: loc, now: time.Now}
}

func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Overview lanza las lecturas en paralelo; si una falla se cancela el resto.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	now := s.now().In(s.loc)
	out := Overview{
		Month:             finance.MonthRange(now),
		TodayByDepartment: make(map[catalog.DepartmentID]int),
		GeneratedAt:       now.UTC(),
	}
	for _, d := range catalog.AllDepartments() {
		out.TodayByDepartment[d] = 0
	}

	var today []appointments.Appointment

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := s.agenda.Today(gctx)
		if err != nil {
			return fmt.Errorf("today: %w", err)
		}
		today = items
		return nil
	})
	g.Go(func() error {
		items, err := s.agenda.PendingCheckIn(gctx)
		if err != nil {
			return fmt.Errorf("pending check-in: %w", err)
		}
		out.PendingCheckInCount = len(items)
		return nil
	})
	g.Go(func() error {
		items, err := s.agenda.InProgress(gctx)
		if err != nil {
			return fmt.Errorf("in progress: %w", err)
		}
		out.InProgressCount = len(items)
		return nil
	})
	g.Go(func() error {
		items, err := s.credits.ActiveCredits(gctx, packages.CustomerFilter{})
		if err != nil {
			return fmt.Errorf("active credits: %w", err)
		}
		out.ActiveCreditsCount = len(items)
		return nil
	})
	g.Go(func() error {
		sum, err := s.finance.Summary(gctx, out.Month)
		if err != nil {
			return fmt.Errorf("month summary: %w", err)
		}
		out.MonthTotal = sum
		return nil
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	out.TodayCount = len(today)
	for _, a := range today {
		out.TodayByDepartment[a.DepartmentID]++
	}
	return out, nil
}
