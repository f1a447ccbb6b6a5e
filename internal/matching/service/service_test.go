package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"duomatch/internal/matching/persistence"
	"duomatch/internal/matching/persistence/mocks"
	"duomatch/internal/matching/store"
	dErrors "duomatch/pkg/domain-errors"
	audit "duomatch/pkg/platform/audit"
	"duomatch/pkg/platform/audit/publisher"
	auditmemory "duomatch/pkg/platform/audit/store/memory"
	"duomatch/pkg/platform/sentinel"
	"duomatch/pkg/testutil"
)

type ServiceSuite struct {
	suite.Suite
	svc      *Service
	registry *store.InMemory
	adapter  *persistence.InMemoryAdapter
	auditPub *publisher.Publisher
	ctx      context.Context
}

func (s *ServiceSuite) SetupTest() {
	s.registry = store.NewInMemory()
	s.adapter = persistence.NewInMemoryAdapter()
	s.auditPub = publisher.NewPublisher(auditmemory.NewInMemoryStore())
	s.svc = NewService(s.registry, s.adapter,
		WithLogger(slog.Default()),
		WithAudit(s.auditPub),
	)
	s.ctx = context.Background()
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) sendInvite(from, to string) string {
	s.T().Helper()
	invite, err := s.svc.SendInvite(s.ctx, from, to, "From "+from, "To "+to)
	s.Require().NoError(err)
	return invite.ID
}

func (s *ServiceSuite) accept(inviteID string) string {
	s.T().Helper()
	result, err := s.svc.RespondToInvite(s.ctx, inviteID, true)
	s.Require().NoError(err)
	s.Require().NotEmpty(result.GroupID)
	return result.GroupID
}

// TestInviteLifecycle walks a full send → accept → group flow through the façade.
func (s *ServiceSuite) TestInviteLifecycle() {
	inviteID := s.sendInvite("alice", "bob")

	pending, err := s.svc.GetPendingInvites(s.ctx, "bob")
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(inviteID, pending[0].ID)

	sent, err := s.svc.GetSentInvites(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(sent, 1)

	result, err := s.svc.RespondToInvite(s.ctx, inviteID, true)
	s.Require().NoError(err)
	s.Require().NotEmpty(result.GroupID)

	groupAlice, err := s.svc.GetUserGroup(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().NotNil(groupAlice)
	groupBob, err := s.svc.GetUserGroup(s.ctx, "bob")
	s.Require().NoError(err)
	s.Require().NotNil(groupBob)
	s.Equal(result.GroupID, groupAlice.ID)
	s.Equal(result.GroupID, groupBob.ID)

	groups, err := s.svc.GetAllGroups(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(groups, 1)
}

// TestDeclineFlow verifies declining leaves everyone ungrouped and the pair free.
func (s *ServiceSuite) TestDeclineFlow() {
	inviteID := s.sendInvite("alice", "bob")

	result, err := s.svc.RespondToInvite(s.ctx, inviteID, false)
	s.Require().NoError(err)
	s.Empty(result.GroupID)

	group, err := s.svc.GetUserGroup(s.ctx, "alice")
	s.Require().NoError(err)
	s.Nil(group)

	_, err = s.svc.SendInvite(s.ctx, "alice", "bob", "Alice", "Bob")
	s.Require().NoError(err)
}

// TestConflictCodes verifies each send-time conflict maps to its own code.
func (s *ServiceSuite) TestConflictCodes() {
	s.Run("duplicate pending pair", func() {
		s.sendInvite("alice", "bob")
		_, err := s.svc.SendInvite(s.ctx, "alice", "bob", "Alice", "Bob")
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateInvite))
	})

	s.Run("sender already grouped", func() {
		s.accept(s.sendInvite("carol", "dave"))
		_, err := s.svc.SendInvite(s.ctx, "carol", "erin", "Carol", "Erin")
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyInGroup))
	})

	s.Run("target already grouped", func() {
		_, err := s.svc.SendInvite(s.ctx, "frank", "dave", "Frank", "Dave")
		s.True(dErrors.HasCode(err, dErrors.CodeTargetInGroup))
	})

	s.Run("unknown invite", func() {
		_, err := s.svc.RespondToInvite(s.ctx, "INV999999", true)
		s.True(dErrors.HasCode(err, dErrors.CodeInviteNotFound))
	})

	s.Run("already responded", func() {
		inviteID := s.sendInvite("gina", "hank")
		_, err := s.svc.RespondToInvite(s.ctx, inviteID, false)
		s.Require().NoError(err)
		_, err = s.svc.RespondToInvite(s.ctx, inviteID, true)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyResponded))
	})
}

// TestAcceptLeavesOtherPendingInvitesUntouched verifies stale invites are not
// auto-cancelled when a participant gets grouped through a different invite.
func (s *ServiceSuite) TestAcceptLeavesOtherPendingInvitesUntouched() {
	staleID := s.sendInvite("carol", "bob")
	s.accept(s.sendInvite("alice", "bob"))

	sent, err := s.svc.GetSentInvites(s.ctx, "carol")
	s.Require().NoError(err)
	s.Require().Len(sent, 1)
	s.Equal(staleID, sent[0].ID)
	s.True(sent[0].IsPending())

	// Accepting the stale invite now would double-group bob, so it must fail
	// with the invite left pending.
	_, err = s.svc.RespondToInvite(s.ctx, staleID, true)
	s.True(dErrors.HasCode(err, dErrors.CodeTargetInGroup))

	sent, err = s.svc.GetSentInvites(s.ctx, "carol")
	s.Require().NoError(err)
	s.True(sent[0].IsPending())
}

// TestLeaveClearsBothMembers verifies a one-sided leave dissolves the group for
// both users.
func (s *ServiceSuite) TestLeaveClearsBothMembers() {
	groupID := s.accept(s.sendInvite("alice", "bob"))

	s.Require().NoError(s.svc.LeaveGroup(s.ctx, "alice"))

	for _, userID := range []string{"alice", "bob"} {
		group, err := s.svc.GetUserGroup(s.ctx, userID)
		s.Require().NoError(err)
		s.Nil(group)
	}

	group, err := s.svc.GetGroup(s.ctx, groupID)
	s.Require().NoError(err)
	s.False(group.IsActive)

	err = s.svc.LeaveGroup(s.ctx, "alice")
	s.True(dErrors.HasCode(err, dErrors.CodeNotInGroup))
}

// TestReversePairInviteAllowed verifies that a pending alice→bob invite does
// not block bob→alice.
func (s *ServiceSuite) TestReversePairInviteAllowed() {
	s.sendInvite("alice", "bob")

	invite, err := s.svc.SendInvite(s.ctx, "bob", "alice", "Bob", "Alice")
	s.Require().NoError(err)
	s.Equal("bob", invite.FromUserID)
}

// TestValidation verifies empty-ID rejection on the query surface.
func (s *ServiceSuite) TestValidation() {
	_, err := s.svc.GetPendingInvites(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = s.svc.GetSentInvites(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = s.svc.GetUserGroup(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	err = s.svc.LeaveGroup(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

// TestWriteThrough verifies mutations survive a restart via the adapter.
func (s *ServiceSuite) TestWriteThrough() {
	groupID := s.accept(s.sendInvite("alice", "bob"))
	s.sendInvite("carol", "dave")

	restarted := NewService(store.NewInMemory(), s.adapter)
	s.Require().NoError(restarted.Initialize(s.ctx))

	group, err := restarted.GetUserGroup(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().NotNil(group)
	s.Equal(groupID, group.ID)

	pending, err := restarted.GetPendingInvites(s.ctx, "dave")
	s.Require().NoError(err)
	s.Len(pending, 1)

	// Counters resumed: the next invite ID continues the persisted sequence.
	invite, err := restarted.SendInvite(s.ctx, "erin", "frank", "Erin", "Frank")
	s.Require().NoError(err)
	s.Equal("INV000003", invite.ID)
}

// TestClearAllData verifies the reset persists the empty state.
func (s *ServiceSuite) TestClearAllData() {
	s.accept(s.sendInvite("alice", "bob"))

	s.Require().NoError(s.svc.ClearAllData(s.ctx))

	restarted := NewService(store.NewInMemory(), s.adapter)
	s.Require().NoError(restarted.Initialize(s.ctx))

	groups, err := restarted.GetAllGroups(s.ctx)
	s.Require().NoError(err)
	s.Empty(groups)
}

// TestDemoBootstrap verifies seeding runs only against an empty registry and is
// deterministic across runs.
func (s *ServiceSuite) TestDemoBootstrap() {
	s.Run("seeds pairs into an empty registry", func() {
		svc := NewService(store.NewInMemory(), persistence.NewInMemoryAdapter(),
			WithDemoBootstrap(3),
		)
		s.Require().NoError(svc.Initialize(s.ctx))

		groups, err := svc.GetAllGroups(s.ctx)
		s.Require().NoError(err)
		s.Len(groups, 3)
	})

	s.Run("does not reseed a non-empty registry", func() {
		adapter := persistence.NewInMemoryAdapter()
		first := NewService(store.NewInMemory(), adapter, WithDemoBootstrap(3))
		s.Require().NoError(first.Initialize(s.ctx))

		second := NewService(store.NewInMemory(), adapter, WithDemoBootstrap(3))
		s.Require().NoError(second.Initialize(s.ctx))

		groups, err := second.GetAllGroups(s.ctx)
		s.Require().NoError(err)
		s.Len(groups, 3)
	})

	s.Run("seeded members are identical across bootstraps", func() {
		one := NewService(store.NewInMemory(), persistence.NewInMemoryAdapter(), WithDemoBootstrap(2))
		two := NewService(store.NewInMemory(), persistence.NewInMemoryAdapter(), WithDemoBootstrap(2))
		s.Require().NoError(one.Initialize(s.ctx))
		s.Require().NoError(two.Initialize(s.ctx))

		groupsOne, err := one.GetAllGroups(s.ctx)
		s.Require().NoError(err)
		groupsTwo, err := two.GetAllGroups(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(groupsTwo, len(groupsOne))
		for i := range groupsOne {
			s.Equal(groupsOne[i].User1ID, groupsTwo[i].User1ID)
			s.Equal(groupsOne[i].User2ID, groupsTwo[i].User2ID)
		}
	})
}

// TestAuditTrail verifies mutations leave events in the audit store.
func (s *ServiceSuite) TestAuditTrail() {
	inviteID := s.sendInvite("alice", "bob")
	s.accept(inviteID)
	s.Require().NoError(s.svc.LeaveGroup(s.ctx, "alice"))

	events, err := s.auditPub.List(s.ctx, "alice")
	s.Require().NoError(err)

	actions := make([]audit.Action, 0, len(events))
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	s.Contains(actions, audit.ActionInviteSent)
	s.Contains(actions, audit.ActionGroupCreated)
	s.Contains(actions, audit.ActionGroupLeft)

	bobEvents, err := s.auditPub.List(s.ctx, "bob")
	s.Require().NoError(err)
	s.Require().NotEmpty(bobEvents)
	s.Equal(audit.ActionInviteAccepted, bobEvents[0].Action)
}

// TestMatchFlowEndToEnd replays a full pairing story through the façade.
func TestMatchFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewInMemory(), persistence.NewInMemoryAdapter())

	var inviteID, groupID string

	testutil.Given(t, "alice has invited bob", func(t *testing.T) {
		invite, err := svc.SendInvite(ctx, "alice", "bob", "Alice", "Bob")
		if err != nil {
			t.Fatalf("send invite: %v", err)
		}
		inviteID = invite.ID
	})

	testutil.When(t, "bob accepts the invite", func(t *testing.T) {
		result, err := svc.RespondToInvite(ctx, inviteID, true)
		if err != nil {
			t.Fatalf("respond: %v", err)
		}
		groupID = result.GroupID
	})

	testutil.Then(t, "both users share one active group", func(t *testing.T) {
		for _, userID := range []string{"alice", "bob"} {
			group, err := svc.GetUserGroup(ctx, userID)
			if err != nil {
				t.Fatalf("get group for %s: %v", userID, err)
			}
			if group == nil || group.ID != groupID {
				t.Fatalf("expected %s in group %s, got %+v", userID, groupID, group)
			}
		}
	})

	testutil.Then(t, "leaving dissolves the group for both", func(t *testing.T) {
		if err := svc.LeaveGroup(ctx, "bob"); err != nil {
			t.Fatalf("leave: %v", err)
		}
		group, err := svc.GetUserGroup(ctx, "alice")
		if err != nil {
			t.Fatalf("get group: %v", err)
		}
		if group != nil {
			t.Fatalf("expected alice ungrouped, got %+v", group)
		}
	})
}

// Persistence-failure behavior is pinned with a mocked adapter: the in-memory
// mutation stands, and the caller gets both the value and the failure code.

func TestSendInviteSurvivesFlushFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mocks.NewMockAdapter(ctrl)
	adapter.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.Join(sentinel.ErrUnavailable, errors.New("backend down"))).
		AnyTimes()

	svc := NewService(store.NewInMemory(), adapter)
	ctx := context.Background()

	invite, err := svc.SendInvite(ctx, "alice", "bob", "Alice", "Bob")
	if !dErrors.HasCode(err, dErrors.CodePersistenceFailure) {
		t.Fatalf("expected persistence failure code, got %v", err)
	}
	if invite == nil || invite.ID != "INV000001" {
		t.Fatalf("expected created invite alongside the error, got %+v", invite)
	}

	// The mutation was not rolled back.
	pending, err := svc.GetPendingInvites(ctx, "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected invite retained in memory, got %d", len(pending))
	}
}

func TestRespondSurvivesFlushFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mocks.NewMockAdapter(ctrl)
	flaky := false
	adapter.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, []byte) error {
			if flaky {
				return sentinel.ErrUnavailable
			}
			return nil
		}).
		AnyTimes()

	svc := NewService(store.NewInMemory(), adapter)
	ctx := context.Background()

	invite, err := svc.SendInvite(ctx, "alice", "bob", "Alice", "Bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	flaky = true
	result, err := svc.RespondToInvite(ctx, invite.ID, true)
	if !dErrors.HasCode(err, dErrors.CodePersistenceFailure) {
		t.Fatalf("expected persistence failure code, got %v", err)
	}
	if result == nil || result.GroupID == "" {
		t.Fatalf("expected accepted result alongside the error, got %+v", result)
	}

	group, err := svc.GetUserGroup(ctx, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if group == nil || group.ID != result.GroupID {
		t.Fatalf("expected group retained in memory, got %+v", group)
	}
}

func TestInitializeDegradedOnLoadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mocks.NewMockAdapter(ctrl)
	adapter.EXPECT().
		Load(gomock.Any(), gomock.Any()).
		Return(nil, sentinel.ErrUnavailable).
		AnyTimes()
	adapter.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil).
		AnyTimes()

	svc := NewService(store.NewInMemory(), adapter)
	ctx := context.Background()

	err := svc.Initialize(ctx)
	if !dErrors.HasCode(err, dErrors.CodePersistenceFailure) {
		t.Fatalf("expected persistence failure code, got %v", err)
	}

	// The registry starts empty but the façade stays usable.
	invite, sendErr := svc.SendInvite(ctx, "alice", "bob", "Alice", "Bob")
	if sendErr != nil {
		t.Fatalf("expected service usable after degraded init, got %v", sendErr)
	}
	if invite.ID != "INV000001" {
		t.Fatalf("expected fresh counter, got %s", invite.ID)
	}
}

func TestHealthReportsAdapterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mocks.NewMockAdapter(ctrl)
	adapter.EXPECT().
		Load(gomock.Any(), persistence.KeyCounters).
		Return(nil, sentinel.ErrUnavailable)

	svc := NewService(store.NewInMemory(), adapter)

	err := svc.Health(context.Background())
	if !dErrors.HasCode(err, dErrors.CodePersistenceFailure) {
		t.Fatalf("expected persistence failure code, got %v", err)
	}
}

func TestPersistTimeoutBoundsFlush(t *testing.T) {
	ctrl := gomock.NewController(t)
	adapter := mocks.NewMockAdapter(ctrl)
	adapter.EXPECT().
		Save(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, _ []byte) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
				return nil
			}
		}).
		AnyTimes()

	svc := NewService(store.NewInMemory(), adapter, WithPersistTimeout(10*time.Millisecond))

	_, err := svc.SendInvite(context.Background(), "alice", "bob", "Alice", "Bob")
	if !dErrors.HasCode(err, dErrors.CodePersistenceFailure) {
		t.Fatalf("expected persistence failure on timeout, got %v", err)
	}
}
