package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"petshop-manager/internal/domain/errs"
	"petshop-manager/internal/platform/logger"
)

// Sender entrega un mensaje por un canal (webhook, WhatsApp).
type Sender interface {
	Send(ctx context.Context, m Message) error
	// Configured=false: no hay destino configurado y no se encola nada.
	Configured() bool
}

// ErrNotClaimed: DeliverNow no intentó el envío porque el mensaje ya no está
// pendiente o lo tiene tomado otro proceso. No es un fallo de entrega.
var ErrNotClaimed = errors.New("notification not claimed")

type Policy struct {
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	Lease       time.Duration
	BatchSize   int
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 8,
		BackoffBase: 30 * time.Second,
		BackoffMax:  time.Hour,
		Lease:       2 * time.Minute,
		BatchSize:   20,
	}
}

type Dispatcher struct {
	repo   Repository
	sender Sender
	policy Policy
	log    logger.Logger
	now    func() time.Time
}

func NewDispatcher(repo Repository, sender Sender, policy Policy, log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{
		repo:   repo,
		sender: sender,
		policy: policy,
		log:    log,
		now:    time.Now,
	}
}

func (d *Dispatcher) SetClock(now func() time.Time) { d.now = now }

func (d *Dispatcher) Enabled() bool {
	return d.sender != nil && d.sender.Configured()
}

// EnqueueCheckout graba el mensaje en el outbox. Dentro de RunInTx
// queda en la misma transacción que el checkout.
func (d *Dispatcher) EnqueueCheckout(ctx context.Context, appointmentID string, p CheckoutPayload) (Message, error) {
	p.Type = string(KindCheckout)
	raw, err := json.Marshal(p)
	if err != nil {
		return Message{}, fmt.Errorf("marshal checkout payload: %w", err)
	}

	now := d.now().UTC()
	m := Message{
		ID:            uuid.NewString(),
		Kind:          KindCheckout,
		AppointmentID: appointmentID,
		Payload:       raw,
		Status:        StatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
	}
	if err := d.repo.Enqueue(ctx, m); err != nil {
		return Message{}, err
	}
	return m, nil
}

// DeliverNow intenta entregar un mensaje ya encolado. Un fallo deja el
// mensaje para reintento y devuelve ErrNotification. Si el mensaje no se pudo
// tomar devuelve ErrNotClaimed sin intentar nada.
func (d *Dispatcher) DeliverNow(ctx context.Context, id string) error {
	m, ok, err := d.repo.ClaimByID(ctx, id, d.now().UTC(), d.policy.Lease)
	if err != nil {
		return fmt.Errorf("%w: claim %s: %w", errs.ErrNotification, id, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotClaimed, id)
	}
	return d.attempt(ctx, m)
}

// DispatchPending procesa un lote de mensajes vencidos.
func (d *Dispatcher) DispatchPending(ctx context.Context) (DispatchResult, error) {
	var res DispatchResult
	if !d.Enabled() {
		return res, nil
	}

	msgs, err := d.repo.ClaimDue(ctx, d.now().UTC(), d.policy.Lease, d.policy.BatchSize)
	if err != nil {
		return res, fmt.Errorf("claim due messages: %w", err)
	}
	res.Claimed = len(msgs)

	for _, m := range msgs {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		err := d.attempt(ctx, m)
		switch {
		case err == nil:
			res.Delivered++
		case m.Attempts+1 >= d.policy.MaxAttempts:
			res.Failed++
		default:
			res.Retrying++
		}
	}
	return res, nil
}

func (d *Dispatcher) List(ctx context.Context, f ListFilter) ([]Message, error) {
	if f.Status != "" && !f.Status.IsValid() {
		return nil, errs.Invalid("status", "unknown status")
	}
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}
	return d.repo.List(ctx, f)
}

func (d *Dispatcher) attempt(ctx context.Context, m Message) error {
	log := d.log.With(map[string]any{
		"message_id":     m.ID,
		"appointment_id": m.AppointmentID,
		"attempt":        m.Attempts + 1,
	})

	sendErr := d.sender.Send(ctx, m)
	now := d.now().UTC()
	if sendErr == nil {
		if err := d.repo.MarkDelivered(ctx, m.ID, now); err != nil {
			log.Error("mark delivered failed", map[string]any{"err": err})
			return fmt.Errorf("%w: %w", errs.ErrNotification, err)
		}
		log.Info("notification delivered", nil)
		return nil
	}

	attempts := m.Attempts + 1
	final := attempts >= d.policy.MaxAttempts
	next := now.Add(Backoff(attempts, d.policy.BackoffBase, d.policy.BackoffMax))
	if err := d.repo.MarkAttemptFailed(ctx, m.ID, attempts, next, sendErr.Error(), final); err != nil {
		log.Error("mark attempt failed", map[string]any{"err": err})
	}

	fields := map[string]any{"err": sendErr, "final": final}
	if !final {
		fields["next_attempt_at"] = next
	}
	log.Warn("notification delivery failed", fields)
	return fmt.Errorf("%w: %w", errs.ErrNotification, sendErr)
}

// Backoff exponencial: base * 2^(attempt-1), con tope ceiling.
func Backoff(attempt int, base, ceiling time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	return min(d, ceiling)
}
