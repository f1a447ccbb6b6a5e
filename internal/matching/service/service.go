// Package service exposes the matching façade: the one API UI-facing code
// calls. It composes the registry store and the persistence adapter, owns
// error translation, and emits audit events and metrics around every mutation.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	matchingmetrics "duomatch/internal/matching/metrics"
	"duomatch/internal/matching/models"
	"duomatch/internal/matching/persistence"
	"duomatch/internal/matching/store"
	dErrors "duomatch/pkg/domain-errors"
	audit "duomatch/pkg/platform/audit"
	"duomatch/pkg/platform/sentinel"
	"duomatch/pkg/requestcontext"
)

// AuditEmitter is the slice of the audit publisher the service needs.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the matching façade. Construct once at process start and pass by
// reference; there is no ambient singleton.
//
// Write-through policy: every mutating call ends with a persistence flush of
// the full registry snapshot. A flush failure after a successful in-memory
// mutation is reported as CodePersistenceFailure alongside the mutated value —
// the mutation is NOT rolled back. This mirrors the persistence model the
// registry was designed around (last-writer-wins snapshots), not a transaction.
type Service struct {
	registry store.Registry
	adapter  persistence.Adapter
	logger   *slog.Logger
	metrics  *matchingmetrics.Metrics
	audit    AuditEmitter
	tracer   trace.Tracer

	bootstrapDemoData bool
	demoPairCount     int
	persistTimeout    time.Duration
}

// Option configures the service.
type Option func(*Service)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches the matching metrics; nil metrics are skipped safely.
func WithMetrics(m *matchingmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithAudit attaches an audit emitter.
func WithAudit(emitter AuditEmitter) Option {
	return func(s *Service) { s.audit = emitter }
}

// WithDemoBootstrap enables seeding of n deterministic demo pairs when
// Initialize finds an empty registry.
func WithDemoBootstrap(n int) Option {
	return func(s *Service) {
		s.bootstrapDemoData = true
		s.demoPairCount = n
	}
}

// WithPersistTimeout bounds each persistence flush.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *Service) { s.persistTimeout = d }
}

// NewService wires the façade over a registry and a persistence adapter.
func NewService(registry store.Registry, adapter persistence.Adapter, opts ...Option) *Service {
	s := &Service{
		registry:       registry,
		adapter:        adapter,
		logger:         slog.Default(),
		tracer:         otel.Tracer("duomatch/matching"),
		persistTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RespondResult reports the outcome of RespondToInvite. GroupID is set only
// when the invite was accepted.
type RespondResult struct {
	Invite  *models.Invite
	GroupID string
}

// Initialize loads the persisted snapshot into the registry. A persistence
// failure leaves the registry empty but usable and is returned as
// CodePersistenceFailure rather than refusing to start. When the registry is
// empty and demo bootstrap is enabled, deterministic demo pairs are seeded
// exactly once.
func (s *Service) Initialize(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "matching.Initialize")
	defer span.End()

	loadCtx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	snap, err := persistence.LoadSnapshot(loadCtx, s.adapter)
	if err != nil {
		s.logger.ErrorContext(ctx, "snapshot load failed, starting empty",
			"error", err.Error(),
		)
		return dErrors.Wrap(err, dErrors.CodePersistenceFailure, "could not load persisted state")
	}
	if err := s.registry.Restore(ctx, snap); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not restore registry state")
	}

	empty, err := s.registry.Empty(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not inspect registry state")
	}
	if empty && s.bootstrapDemoData {
		now := requestcontext.Now(ctx).UTC()
		if err := store.SeedPairs(ctx, s.registry, store.DemoPairs(s.demoPairCount), now); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "demo bootstrap failed")
		}
		s.emit(ctx, audit.Event{Action: audit.ActionDemoSeeded})
		s.logger.InfoContext(ctx, "seeded demo pairs", "pairs", s.demoPairCount)
		if err := s.flush(ctx); err != nil {
			return err
		}
	}
	return nil
}

// SendInvite validates availability of both users and the ordered pair, then
// creates a pending invite. On a flush failure the created invite is returned
// together with a CodePersistenceFailure error.
func (s *Service) SendInvite(ctx context.Context, fromUserID, toUserID, fromName, toName string) (*models.Invite, error) {
	ctx, span := s.tracer.Start(ctx, "matching.SendInvite")
	defer span.End()
	if s.metrics != nil {
		defer s.metrics.ObserveSendInvite(time.Now())
	}

	now := requestcontext.Now(ctx).UTC()
	invite, err := s.registry.CreateInvite(ctx, fromUserID, toUserID, fromName, toName, now)
	if err != nil {
		return nil, translateInviteErr(err)
	}

	if s.metrics != nil {
		s.metrics.InvitesSent.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:      audit.ActionInviteSent,
		UserID:      fromUserID,
		OtherUserID: toUserID,
		InviteID:    invite.ID,
		RequestID:   requestcontext.RequestID(ctx),
	})

	if err := s.flush(ctx); err != nil {
		return invite, err
	}
	return invite, nil
}

// RespondToInvite applies the terminal transition. Accepting atomically
// creates the group and indexes both members; by the time this returns, both
// users resolve to the same group ID. Declining frees the pair for future
// invites. On a flush failure the applied result is returned together with a
// CodePersistenceFailure error.
func (s *Service) RespondToInvite(ctx context.Context, inviteID string, accept bool) (*RespondResult, error) {
	ctx, span := s.tracer.Start(ctx, "matching.RespondToInvite")
	defer span.End()
	if s.metrics != nil {
		defer s.metrics.ObserveRespond(time.Now())
	}

	now := requestcontext.Now(ctx).UTC()
	invite, group, err := s.registry.Respond(ctx, inviteID, accept, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeInviteNotFound, "invite not found")
		}
		return nil, translateInviteErr(err)
	}

	result := &RespondResult{Invite: invite}
	if group != nil {
		result.GroupID = group.ID
		if s.metrics != nil {
			s.metrics.InvitesAccepted.Inc()
			s.metrics.GroupsCreated.Inc()
		}
		s.emit(ctx, audit.Event{
			Action:      audit.ActionInviteAccepted,
			UserID:      invite.ToUserID,
			OtherUserID: invite.FromUserID,
			InviteID:    invite.ID,
			GroupID:     group.ID,
			RequestID:   requestcontext.RequestID(ctx),
		})
		s.emit(ctx, audit.Event{
			Action:      audit.ActionGroupCreated,
			UserID:      group.User1ID,
			OtherUserID: group.User2ID,
			GroupID:     group.ID,
			RequestID:   requestcontext.RequestID(ctx),
		})
	} else {
		if s.metrics != nil {
			s.metrics.InvitesDeclined.Inc()
		}
		s.emit(ctx, audit.Event{
			Action:      audit.ActionInviteDeclined,
			UserID:      invite.ToUserID,
			OtherUserID: invite.FromUserID,
			InviteID:    invite.ID,
			RequestID:   requestcontext.RequestID(ctx),
		})
	}

	if err := s.flush(ctx); err != nil {
		return result, err
	}
	return result, nil
}

// GetPendingInvites lists pending invites addressed to the user, oldest first.
func (s *Service) GetPendingInvites(ctx context.Context, userID string) ([]models.Invite, error) {
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	return s.registry.PendingInvitesFor(ctx, userID)
}

// GetSentInvites lists invites authored by the user in any status, oldest first.
func (s *Service) GetSentInvites(ctx context.Context, userID string) ([]models.Invite, error) {
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	return s.registry.SentInvitesBy(ctx, userID)
}

// GetUserGroup resolves the user's current active group, or nil when the user
// is ungrouped.
func (s *Service) GetUserGroup(ctx context.Context, userID string) (*models.Group, error) {
	if userID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	group, err := s.registry.GroupFor(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if errors.Is(err, store.ErrIndexDangling) {
		return nil, dErrors.Wrap(err, dErrors.CodeGroupNotFound, "membership index references a missing group")
	}
	return group, err
}

// GetGroup resolves a group by ID regardless of its active flag.
func (s *Service) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := s.registry.FindGroup(ctx, groupID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeGroupNotFound, "group not found")
	}
	return group, err
}

// GetAllGroups lists active groups.
func (s *Service) GetAllGroups(ctx context.Context) ([]models.Group, error) {
	return s.registry.ActiveGroups(ctx)
}

// LeaveGroup dissolves the caller's group. Both members drop out of the
// membership index even though only one requested the leave; the group record
// is kept, deactivated, for history. On a flush failure the in-memory
// dissolution stands and CodePersistenceFailure is returned.
func (s *Service) LeaveGroup(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "matching.LeaveGroup")
	defer span.End()

	if userID == "" {
		return dErrors.New(dErrors.CodeValidation, "user id is required")
	}

	group, err := s.registry.LeaveGroup(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotInGroup, "user is not in a group")
		}
		if errors.Is(err, store.ErrIndexDangling) {
			return dErrors.Wrap(err, dErrors.CodeGroupNotFound, "membership index references a missing group")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to leave group")
	}

	if s.metrics != nil {
		s.metrics.GroupsDissolved.Inc()
	}
	other := group.User1ID
	if other == userID {
		other = group.User2ID
	}
	s.emit(ctx, audit.Event{
		Action:      audit.ActionGroupLeft,
		UserID:      userID,
		OtherUserID: other,
		GroupID:     group.ID,
		RequestID:   requestcontext.RequestID(ctx),
	})

	return s.flush(ctx)
}

// ClearAllData resets all collections and counters and persists the empty
// state. Used by the reset-for-testing affordance.
func (s *Service) ClearAllData(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "matching.ClearAllData")
	defer span.End()

	if err := s.registry.Clear(ctx); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear registry")
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionDataCleared,
		RequestID: requestcontext.RequestID(ctx),
	})
	return s.flush(ctx)
}

// Health verifies the persistence backend is reachable.
func (s *Service) Health(ctx context.Context) error {
	if _, err := s.adapter.Load(ctx, persistence.KeyCounters); err != nil {
		return dErrors.Wrap(err, dErrors.CodePersistenceFailure, "persistence backend unreachable")
	}
	return nil
}

// flush writes the current snapshot through the adapter. The snapshot is taken
// under the registry's read lock; the write happens outside any lock, so a
// slow backend never blocks mutations beyond snapshot copying.
func (s *Service) flush(ctx context.Context) error {
	snap, err := s.registry.Snapshot(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to snapshot registry")
	}

	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()

	if err := persistence.SaveSnapshot(flushCtx, s.adapter, snap); err != nil {
		if s.metrics != nil {
			s.metrics.PersistenceFailures.Inc()
		}
		s.logger.ErrorContext(ctx, "persistence flush failed, in-memory state retained",
			"error", err.Error(),
		)
		return dErrors.Wrap(err, dErrors.CodePersistenceFailure, "state mutated but not persisted")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Emit(ctx, event)
}

// translateInviteErr maps store conflicts onto the caller-facing codes.
// Coded errors from the models layer pass through untouched.
func translateInviteErr(err error) error {
	switch {
	case errors.Is(err, store.ErrInviterGrouped):
		return dErrors.New(dErrors.CodeAlreadyInGroup, "user already has an active group")
	case errors.Is(err, store.ErrTargetGrouped):
		return dErrors.New(dErrors.CodeTargetInGroup, "invited user already has an active group")
	case errors.Is(err, store.ErrPendingPairExists):
		return dErrors.New(dErrors.CodeDuplicateInvite, "a pending invite for this pair already exists")
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "invite operation failed")
}
