package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/LerianStudio/lib-uncommons/v2/uncommons/backoff"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/baharkarakas/insider-transfers/internal/metrics"
	"github.com/baharkarakas/insider-transfers/internal/models"
	repo "github.com/baharkarakas/insider-transfers/internal/repository"
	"github.com/baharkarakas/insider-transfers/internal/worker"
)

// DefaultAutoSettleLimit is the largest amount settled without approval.
var DefaultAutoSettleLimit = decimal.NewFromInt(50000)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200

	tracerName = "github.com/baharkarakas/insider-transfers/internal/services"

	saveRejectedAttempts = 3
	saveRejectedBackoff  = 25 * time.Millisecond
)

// settlement is the outcome of checking a new request against the origin.
type settlement int

const (
	settleNow settlement = iota
	awaitApproval
)

type TransferService struct {
	trx    repo.Transfers
	acc    repo.Accounts
	log    repo.AuditLogs
	wp     *worker.Pool
	limit  decimal.Decimal
	logger *slog.Logger
	tracer trace.Tracer
}

type TransferOption func(*TransferService)

// WithAutoSettleLimit overrides DefaultAutoSettleLimit.
func WithAutoSettleLimit(limit decimal.Decimal) TransferOption {
	return func(s *TransferService) { s.limit = limit }
}

func WithLogger(l *slog.Logger) TransferOption {
	return func(s *TransferService) { s.logger = l }
}

// WithTracerProvider replaces the global otel provider.
func WithTracerProvider(tp trace.TracerProvider) TransferOption {
	return func(s *TransferService) { s.tracer = tp.Tracer(tracerName) }
}

// NewTransferService wires the engine. wp may be nil, in which case audit
// entries are written synchronously.
func NewTransferService(t repo.Transfers, a repo.Accounts, l repo.AuditLogs, wp *worker.Pool, opts ...TransferOption) *TransferService {
	s := &TransferService{
		trx:    t,
		acc:    a,
		log:    l,
		wp:     wp,
		limit:  DefaultAutoSettleLimit,
		logger: slog.Default(),
		tracer: otel.Tracer(tracerName),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AutoSettleLimit returns the configured threshold.
func (s *TransferService) AutoSettleLimit() decimal.Decimal { return s.limit }

// CreateTransfer submits a transfer of amount from origin to destination.
//
// Every call that passes input validation produces exactly one record:
// CONFIRMED when settled, PENDING when amount exceeds the auto-settle limit,
// or REJECTED with the reason. Business failures are reported in the record,
// not as an error. The only error returned is ErrInvalidInput for an amount
// that is not positive or has more than two decimal places.
func (s *TransferService) CreateTransfer(ctx context.Context, originID, destinationID int64, amount decimal.Decimal) (models.TransferRequest, error) {
	ctx, span := s.tracer.Start(ctx, "transfers.create", trace.WithAttributes(
		attribute.Int64("transfer.origin_id", originID),
		attribute.Int64("transfer.destination_id", destinationID),
		attribute.String("transfer.amount", amount.String()),
	))
	defer span.End()

	if err := models.ValidateAmount(amount); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.TransferRequest{}, &TransferError{Kind: ErrInvalidInput, Reason: err.Error()}
	}

	req := models.TransferRequest{
		Reference:     uuid.New(),
		OriginID:      originID,
		DestinationID: destinationID,
		Amount:        amount,
		Status:        models.TransferPending,
	}

	var created, out models.TransferRequest
	err := s.submit(ctx, req, &created, &out)
	if err != nil {
		out = s.compensate(ctx, req, created, err)
	} else if out.Status == models.TransferConfirmed {
		s.audit(out, models.AuditActionConfirmed)
	} else {
		s.audit(out, models.AuditActionCreated)
	}

	metrics.TransfersTotal.WithLabelValues(string(out.Status)).Inc()
	span.SetAttributes(
		attribute.Int64("transfer.id", out.ID),
		attribute.String("transfer.status", string(out.Status)),
	)
	return out, nil
}

// submit runs the creation unit. created is set once the row exists inside
// the unit; out is the committed record on success.
func (s *TransferService) submit(ctx context.Context, req models.TransferRequest, created, out *models.TransferRequest) error {
	if req.OriginID == req.DestinationID {
		return fail(ErrInvalidInput, msgSameAccount)
	}

	return s.trx.WithTx(ctx, func(tx repo.Tx) error {
		origin, destination, err := lockPair(ctx, tx, req.OriginID, req.DestinationID)
		if err != nil {
			return err
		}

		outcome, err := s.decide(ctx, tx, origin, req.Amount)
		if err != nil {
			return err
		}

		*created, err = tx.CreateTransfer(ctx, req)
		if errors.Is(err, repo.ErrPendingExists) {
			return fail(ErrConflict, msgPendingExists)
		}
		if err != nil {
			return err
		}

		if outcome == awaitApproval {
			*out = *created
			return nil
		}

		if err := settle(ctx, tx, origin, destination, req.Amount, msgNegativeBalance); err != nil {
			return err
		}
		*out, err = tx.UpdateTransferStatus(ctx, created.ID, models.TransferConfirmed, nil)
		return err
	})
}

// decide checks the locked origin against the request. The pending check
// runs under the origin lock so two submissions cannot both pass it.
func (s *TransferService) decide(ctx context.Context, tx repo.Tx, origin models.Account, amount decimal.Decimal) (settlement, error) {
	if origin.Balance.LessThan(amount) {
		return 0, fail(ErrInsufficientFunds, msgInsufficient)
	}

	pending, err := tx.HasPendingFrom(ctx, origin.ID)
	if err != nil {
		return 0, err
	}
	if pending {
		return 0, fail(ErrConflict, msgPendingExists)
	}

	if amount.GreaterThan(s.limit) {
		return awaitApproval, nil
	}
	return settleNow, nil
}

// lockPair locks both accounts in ascending id order and returns them as
// origin and destination. A missing origin is reported before a missing
// destination regardless of lock order.
func lockPair(ctx context.Context, tx repo.Tx, originID, destinationID int64) (models.Account, models.Account, error) {
	first, second := originID, destinationID
	if second < first {
		first, second = second, first
	}

	locked := make(map[int64]models.Account, 2)
	for _, id := range []int64{first, second} {
		a, err := tx.LockAccount(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return models.Account{}, models.Account{}, err
		}
		locked[id] = a
	}

	origin, ok := locked[originID]
	if !ok {
		return models.Account{}, models.Account{}, fail(ErrNotFound, msgOriginNotFound, originID)
	}
	destination, ok := locked[destinationID]
	if !ok {
		return models.Account{}, models.Account{}, fail(ErrNotFound, msgDestNotFound, destinationID)
	}
	return origin, destination, nil
}

// settle moves amount between two locked accounts.
func settle(ctx context.Context, tx repo.Tx, origin, destination models.Account, amount decimal.Decimal, negativeMsg string) error {
	originBalance := origin.Balance.Sub(amount)
	if originBalance.IsNegative() {
		return fail(ErrInternal, negativeMsg)
	}
	if err := tx.SetBalance(ctx, origin.ID, originBalance); err != nil {
		return err
	}
	return tx.SetBalance(ctx, destination.ID, destination.Balance.Add(amount))
}

// compensate persists a REJECTED record for a failed submission. The unit
// has already rolled back, so this write runs on its own and survives
// cancellation of the caller's context. If it cannot be persisted the
// unsaved record is still returned.
func (s *TransferService) compensate(ctx context.Context, req models.TransferRequest, created models.TransferRequest, cause error) models.TransferRequest {
	rejected := req
	if created.ID != 0 {
		rejected.ID = created.ID
		rejected.CreatedAt = created.CreatedAt
	}

	var reason string
	var te *TransferError
	if errors.As(cause, &te) {
		reason = te.Reason
		if errors.Is(te, ErrInternal) {
			s.logger.Error("transfer invariant violated", "reference", req.Reference, "reason", reason)
		}
	} else {
		s.logger.Error("transfer submission failed",
			"origin_id", req.OriginID, "destination_id", req.DestinationID,
			"reference", req.Reference, "err", cause)
		reason = msgUnexpected + cause.Error()
	}
	if reason == "" {
		reason = msgInternalFallback
	}
	rejected.Reject(reason)

	saved, err := s.saveRejected(context.WithoutCancel(ctx), rejected)
	if err != nil {
		metrics.AuditWriteFailures.Inc()
		s.logger.Error("persist rejected transfer",
			"reference", req.Reference, "reason", reason, "err", err)
		if rejected.CreatedAt.IsZero() {
			rejected.CreatedAt = time.Now().UTC()
		}
		return rejected
	}
	s.audit(saved, models.AuditActionRejected)
	return saved
}

func (s *TransferService) saveRejected(ctx context.Context, t models.TransferRequest) (models.TransferRequest, error) {
	var err error
	for attempt := 1; attempt <= saveRejectedAttempts; attempt++ {
		var saved models.TransferRequest
		saved, err = s.trx.SaveRejected(ctx, t)
		if err == nil {
			return saved, nil
		}
		s.logger.Warn("save rejected transfer failed", "attempt", attempt, "reference", t.Reference, "err", err)
		if attempt == saveRejectedAttempts {
			break
		}
		if ctx.Err() != nil {
			return models.TransferRequest{}, ctx.Err()
		}
		delay := backoff.FullJitter(backoff.Exponential(saveRejectedBackoff, attempt))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return models.TransferRequest{}, ctx.Err()
		}
	}
	return models.TransferRequest{}, err
}

// ApproveTransfer settles a PENDING request. The transfer row is locked
// first, then both accounts in ascending id order; status and balance are
// re-checked under those locks.
func (s *TransferService) ApproveTransfer(ctx context.Context, id int64) (models.TransferRequest, error) {
	ctx, span := s.tracer.Start(ctx, "transfers.approve", trace.WithAttributes(attribute.Int64("transfer.id", id)))
	defer span.End()

	var out models.TransferRequest
	err := s.trx.WithTx(ctx, func(tx repo.Tx) error {
		t, err := lockPendingTransfer(ctx, tx, id, msgOnlyPendingApprove)
		if err != nil {
			return err
		}

		origin, destination, err := lockPair(ctx, tx, t.OriginID, t.DestinationID)
		if errors.Is(err, ErrNotFound) {
			return fail(ErrInternal, msgApproveMissing)
		}
		if err != nil {
			return err
		}

		if origin.Balance.LessThan(t.Amount) {
			return fail(ErrInsufficientFunds, msgApproveInsufficient)
		}
		if err := settle(ctx, tx, origin, destination, t.Amount, msgApproveNegative); err != nil {
			return err
		}

		out, err = tx.UpdateTransferStatus(ctx, id, models.TransferConfirmed, nil)
		return err
	})
	if err != nil {
		return models.TransferRequest{}, s.operationFailed(span, "approve", id, err, msgApproveFailed)
	}

	metrics.TransfersTotal.WithLabelValues(string(out.Status)).Inc()
	s.audit(out, models.AuditActionConfirmed)
	return out, nil
}

// RejectTransfer moves a PENDING request to REJECTED. Only the transfer row
// is locked; balances are untouched and no reason is recorded.
func (s *TransferService) RejectTransfer(ctx context.Context, id int64) (models.TransferRequest, error) {
	ctx, span := s.tracer.Start(ctx, "transfers.reject", trace.WithAttributes(attribute.Int64("transfer.id", id)))
	defer span.End()

	var out models.TransferRequest
	err := s.trx.WithTx(ctx, func(tx repo.Tx) error {
		if _, err := lockPendingTransfer(ctx, tx, id, msgOnlyPendingReject); err != nil {
			return err
		}
		var err error
		out, err = tx.UpdateTransferStatus(ctx, id, models.TransferRejected, nil)
		return err
	})
	if err != nil {
		return models.TransferRequest{}, s.operationFailed(span, "reject", id, err, msgRejectFailed)
	}

	metrics.TransfersTotal.WithLabelValues(string(out.Status)).Inc()
	s.audit(out, models.AuditActionRejected)
	return out, nil
}

func lockPendingTransfer(ctx context.Context, tx repo.Tx, id int64, notPendingMsg string) (models.TransferRequest, error) {
	t, err := tx.LockTransfer(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.TransferRequest{}, fail(ErrNotFound, msgTransferNotFound, id)
	}
	if err != nil {
		return models.TransferRequest{}, err
	}
	if t.Status != models.TransferPending {
		return models.TransferRequest{}, fail(ErrInvalidState, notPendingMsg)
	}
	return t, nil
}

// operationFailed classifies err, records it and returns a *TransferError.
func (s *TransferService) operationFailed(span trace.Span, op string, id int64, err error, fallback string) error {
	var te *TransferError
	if !errors.As(err, &te) {
		te = &TransferError{Kind: ErrInternal, Reason: fallback, Err: err}
	}
	kind := KindLabel(te)
	metrics.TransferFailures.WithLabelValues(op, kind).Inc()
	span.RecordError(te)
	span.SetStatus(codes.Error, te.Reason)

	if errors.Is(te, ErrInternal) {
		s.logger.Error("transfer operation failed", "op", op, "transfer_id", id, "err", err)
	} else {
		s.logger.Info("transfer operation refused", "op", op, "transfer_id", id, "kind", kind, "reason", te.Reason)
	}
	return te
}

// GetTransfer returns one request with account summaries.
func (s *TransferService) GetTransfer(ctx context.Context, id int64) (models.TransferRequest, error) {
	t, err := s.trx.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.TransferRequest{}, fail(ErrNotFound, msgTransferNotFound, id)
	}
	return t, err
}

// ListTransfers returns requests touching the account, newest first.
// A zero limit means defaultPageLimit; limits above maxPageLimit are capped.
func (s *TransferService) ListTransfers(ctx context.Context, accountID int64, p repo.Page) ([]models.TransferRequest, error) {
	if p.Limit < 0 || p.Offset < 0 {
		return nil, fail(ErrInvalidInput, "limit and offset must not be negative")
	}
	if p.Limit == 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}

	ok, err := s.acc.Exists(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fail(ErrNotFound, msgAccountNotFound, accountID)
	}
	return s.trx.ListByAccount(ctx, accountID, p)
}

// audit records a lifecycle entry off the request path.
func (s *TransferService) audit(t models.TransferRequest, action string) {
	entityID := strconv.FormatInt(t.ID, 10)
	details := map[string]any{
		"reference":      t.Reference.String(),
		"origin_id":      t.OriginID,
		"destination_id": t.DestinationID,
		"amount":         t.Amount.StringFixed(models.MoneyScale),
		"status":         string(t.Status),
	}
	if t.RejectedReason != nil {
		details["reason"] = *t.RejectedReason
	}
	entry := models.AuditLog{
		EntityType: models.AuditEntityTransfer,
		EntityID:   &entityID,
		Action:     action,
		Details:    details,
	}

	write := func() {
		if err := s.log.Create(context.Background(), entry); err != nil {
			s.logger.Warn("audit log write failed", "entity_id", entityID, "action", action, "err", err)
		}
	}
	if s.wp == nil || !s.wp.Submit(write) {
		write()
	}
}
