package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"duomatch/internal/matching/idgen"
	"duomatch/internal/matching/models"
	"duomatch/pkg/platform/sentinel"
)

// InMemory is the authoritative registry. One RWMutex covers invites, groups,
// the user→group index, and the ID sequencer together: the accept transition
// marks the invite, creates the group, and indexes both members in a single
// critical section, so no reader can see the invite accepted without the group
// existing or vice versa.
type InMemory struct {
	mu         sync.RWMutex
	invites    map[string]*models.Invite
	groups     map[string]*models.Group
	userGroups map[string]string
	seq        *idgen.Sequencer
}

// NewInMemory returns an empty registry.
func NewInMemory() *InMemory {
	return &InMemory{
		invites:    make(map[string]*models.Invite),
		groups:     make(map[string]*models.Group),
		userGroups: make(map[string]string),
		seq:        idgen.NewSequencer(),
	}
}

func (s *InMemory) CreateInvite(_ context.Context, fromUserID, toUserID, fromName, toName string, now time.Time) (*models.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.userGroups[fromUserID]; ok {
		return nil, ErrInviterGrouped
	}
	if _, ok := s.userGroups[toUserID]; ok {
		return nil, ErrTargetGrouped
	}
	for _, inv := range s.invites {
		if inv.IsPending() && inv.FromUserID == fromUserID && inv.ToUserID == toUserID {
			return nil, ErrPendingPairExists
		}
	}

	invite, err := models.NewInvite(s.seq.Next(idgen.KindInvite), fromUserID, toUserID, fromName, toName, now)
	if err != nil {
		return nil, err
	}
	s.invites[invite.ID] = invite

	cp := *invite
	return &cp, nil
}

func (s *InMemory) Respond(_ context.Context, inviteID string, accept bool, now time.Time) (*models.Invite, *models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	invite, ok := s.invites[inviteID]
	if !ok {
		return nil, nil, sentinel.ErrNotFound
	}
	if err := invite.CanRespond(); err != nil {
		return nil, nil, err
	}

	if !accept {
		invite.ApplyDecline(now)
		cp := *invite
		return &cp, nil, nil
	}

	// A participant may have been grouped through a different invite while
	// this one sat pending. The stale invite is not auto-cancelled, but
	// accepting it would put a user in two active groups, so it fails here
	// and stays pending.
	if _, grouped := s.userGroups[invite.FromUserID]; grouped {
		return nil, nil, ErrInviterGrouped
	}
	if _, grouped := s.userGroups[invite.ToUserID]; grouped {
		return nil, nil, ErrTargetGrouped
	}

	invite.ApplyAccept(now)
	group := s.createGroupLocked(invite.FromUserID, invite.ToUserID, invite.FromUserName, invite.ToUserName, now)

	invCp := *invite
	grpCp := *group
	return &invCp, &grpCp, nil
}

func (s *InMemory) CreateGroup(_ context.Context, user1ID, user2ID, user1Name, user2Name string, now time.Time) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	group := s.createGroupLocked(user1ID, user2ID, user1Name, user2Name, now)
	cp := *group
	return &cp, nil
}

// createGroupLocked allocates an ID, stores the group, and indexes both
// members. Callers hold the write lock.
func (s *InMemory) createGroupLocked(user1ID, user2ID, user1Name, user2Name string, now time.Time) *models.Group {
	group := models.NewGroup(s.seq.Next(idgen.KindGroup), user1ID, user2ID, user1Name, user2Name, now)
	s.groups[group.ID] = group
	s.userGroups[user1ID] = group.ID
	s.userGroups[user2ID] = group.ID
	return group
}

func (s *InMemory) LeaveGroup(_ context.Context, userID string) (*models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groupID, ok := s.userGroups[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	group, ok := s.groups[groupID]
	if !ok {
		return nil, ErrIndexDangling
	}

	group.ApplyDissolution()
	delete(s.userGroups, group.User1ID)
	delete(s.userGroups, group.User2ID)

	cp := *group
	return &cp, nil
}

func (s *InMemory) PendingInvitesFor(_ context.Context, userID string) ([]models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Invite
	for _, inv := range s.invites {
		if inv.IsPending() && inv.ToUserID == userID {
			out = append(out, *inv)
		}
	}
	sortInvites(out)
	return out, nil
}

func (s *InMemory) SentInvitesBy(_ context.Context, userID string) ([]models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Invite
	for _, inv := range s.invites {
		if inv.FromUserID == userID {
			out = append(out, *inv)
		}
	}
	sortInvites(out)
	return out, nil
}

func (s *InMemory) GroupFor(_ context.Context, userID string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groupID, ok := s.userGroups[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	group, ok := s.groups[groupID]
	if !ok {
		return nil, ErrIndexDangling
	}
	cp := *group
	return &cp, nil
}

func (s *InMemory) FindGroup(_ context.Context, groupID string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	group, ok := s.groups[groupID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *group
	return &cp, nil
}

func (s *InMemory) ActiveGroups(_ context.Context) ([]models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Group
	for _, g := range s.groups {
		if g.IsActive {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemory) Empty(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.invites) == 0 && len(s.groups) == 0, nil
}

func (s *InMemory) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invites = make(map[string]*models.Invite)
	s.groups = make(map[string]*models.Group)
	s.userGroups = make(map[string]string)
	s.seq.Reset()
	return nil
}

func (s *InMemory) Snapshot(_ context.Context) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := NewSnapshot()
	for id, inv := range s.invites {
		snap.Invites[id] = *inv
	}
	for id, g := range s.groups {
		snap.Groups[id] = *g
	}
	for userID, groupID := range s.userGroups {
		snap.UserGroups[userID] = groupID
	}
	snap.Counters.Invite, snap.Counters.Group = s.seq.Counters()
	return snap, nil
}

func (s *InMemory) Restore(_ context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invites = make(map[string]*models.Invite, len(snap.Invites))
	for id, inv := range snap.Invites {
		cp := inv
		s.invites[id] = &cp
	}
	s.groups = make(map[string]*models.Group, len(snap.Groups))
	for id, g := range snap.Groups {
		cp := g
		s.groups[id] = &cp
	}
	s.userGroups = make(map[string]string, len(snap.UserGroups))
	for userID, groupID := range snap.UserGroups {
		s.userGroups[userID] = groupID
	}
	s.seq.Restore(snap.Counters.Invite, snap.Counters.Group)
	return nil
}

// sortInvites orders by ID, which equals creation order thanks to the
// zero-padded sequencer.
func sortInvites(invites []models.Invite) {
	sort.Slice(invites, func(i, j int) bool { return invites[i].ID < invites[j].ID })
}
