// Package memory provides a mutex-guarded in-memory Store implementation for
// tests and demos. Data is lost on process exit.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/unipath-ai/unipath/core"
	"github.com/unipath-ai/unipath/store"
)

// Store keeps all collections in maps guarded by a single mutex. Writes copy
// records in and reads copy records out, so callers never share memory with
// the store.
type Store struct {
	mu              sync.RWMutex
	profiles        map[string]core.Profile
	studentProfiles map[string]core.StudentProfile
	universities    map[string]core.University
	shortlists      map[string]core.ShortlistEntry // keyed userID + "/" + universityID
	tasks           map[string]core.Task
	sops            map[string]core.SOPDocument
	conversations   map[string]core.Conversation
	messages        map[string][]core.ChatMessage // keyed by conversation ID
}

var _ store.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		profiles:        make(map[string]core.Profile),
		studentProfiles: make(map[string]core.StudentProfile),
		universities:    make(map[string]core.University),
		shortlists:      make(map[string]core.ShortlistEntry),
		tasks:           make(map[string]core.Task),
		sops:            make(map[string]core.SOPDocument),
		conversations:   make(map[string]core.Conversation),
		messages:        make(map[string][]core.ChatMessage),
	}
}

func shortlistKey(userID, universityID string) string {
	return userID + "/" + universityID
}

// GetProfile implements store.Profiles.
func (s *Store) GetProfile(_ context.Context, userID string) (*core.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

// SaveProfile implements store.Profiles.
func (s *Store) SaveProfile(_ context.Context, profile *core.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := *profile
	if p.CurrentStage == 0 {
		p.CurrentStage = core.StageOnboarding
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.profiles[p.ID] = p
	return nil
}

// GetStudentProfile implements store.Profiles.
func (s *Store) GetStudentProfile(_ context.Context, userID string) (*core.StudentProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.studentProfiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

// SaveStudentProfile implements store.Profiles.
func (s *Store) SaveStudentProfile(_ context.Context, profile *core.StudentProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.studentProfiles[profile.UserID] = *profile
	return nil
}

// CompleteOnboarding implements store.Profiles.
func (s *Store) CompleteOnboarding(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return store.ErrNotFound
	}
	p.OnboardingCompleted = true
	if p.CurrentStage < core.StageDiscovery {
		p.CurrentStage = core.StageDiscovery
	}
	s.profiles[userID] = p
	return nil
}

// AddUniversity registers reference data. Not part of store.Store; used by
// tests and seeding.
func (s *Store) AddUniversity(u core.University) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	s.universities[u.ID] = u
}

// GetUniversity implements store.Catalog.
func (s *Store) GetUniversity(_ context.Context, id string) (*core.University, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.universities[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

// ListUniversities implements store.Catalog.
func (s *Store) ListUniversities(_ context.Context) ([]core.University, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.University, 0, len(s.universities))
	for _, u := range s.universities {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SearchUniversities implements store.Catalog.
func (s *Store) SearchUniversities(ctx context.Context, filter store.SearchFilter) ([]core.University, error) {
	all, err := s.ListUniversities(ctx)
	if err != nil {
		return nil, err
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 5
	}
	var out []core.University
	for _, u := range all {
		if filter.Name != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.Country != "" && !strings.EqualFold(u.Country, filter.Country) {
			continue
		}
		if filter.MaxTuition > 0 && u.TuitionMax > filter.MaxTuition {
			continue
		}
		out = append(out, u)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// GetShortlistEntry implements store.Shortlists.
func (s *Store) GetShortlistEntry(_ context.Context, userID, universityID string) (*core.ShortlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.shortlists[shortlistKey(userID, universityID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

// ListShortlist implements store.Shortlists.
func (s *Store) ListShortlist(_ context.Context, userID string) ([]core.ShortlistEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.ShortlistEntry
	for _, e := range s.shortlists {
		if e.UserID != userID {
			continue
		}
		if u, ok := s.universities[e.UniversityID]; ok {
			uc := u
			e.University = &uc
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// UpsertShortlistEntry implements store.Shortlists.
func (s *Store) UpsertShortlistEntry(_ context.Context, entry *core.ShortlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := shortlistKey(entry.UserID, entry.UniversityID)
	if existing, ok := s.shortlists[key]; ok {
		existing.Category = entry.Category
		existing.Reasoning = entry.Reasoning
		s.shortlists[key] = existing
		return nil
	}
	e := *entry
	e.University = nil
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	s.shortlists[key] = e
	return nil
}

// RemoveShortlistEntry implements store.Shortlists.
func (s *Store) RemoveShortlistEntry(_ context.Context, userID, universityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := shortlistKey(userID, universityID)
	if _, ok := s.shortlists[key]; !ok {
		return store.ErrNotFound
	}
	delete(s.shortlists, key)
	return nil
}

// SetShortlistLocked implements store.Shortlists.
func (s *Store) SetShortlistLocked(_ context.Context, userID, universityID string, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := shortlistKey(userID, universityID)
	e, ok := s.shortlists[key]
	if !ok {
		return store.ErrNotFound
	}
	e.Locked = locked
	s.shortlists[key] = e
	return nil
}

// CreateTask implements store.Tasks.
func (s *Store) CreateTask(_ context.Context, task *core.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := *task
	if t.ID == "" {
		t.ID = uuid.NewString()
		task.ID = t.ID
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.tasks[t.ID] = t
	return nil
}

// GetTask implements store.Tasks.
func (s *Store) GetTask(_ context.Context, userID, taskID string) (*core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[taskID]
	if !ok || t.UserID != userID {
		return nil, store.ErrNotFound
	}
	return &t, nil
}

// ListTasks implements store.Tasks.
func (s *Store) ListTasks(_ context.Context, userID string) ([]core.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Task
	for _, t := range s.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// UpdateTask implements store.Tasks.
func (s *Store) UpdateTask(_ context.Context, task *core.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return store.ErrNotFound
	}
	t := *task
	t.CreatedAt = existing.CreatedAt
	s.tasks[t.ID] = t
	return nil
}

// DeleteTask implements store.Tasks.
func (s *Store) DeleteTask(_ context.Context, userID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok || t.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.tasks, taskID)
	return nil
}

// CreateSOP implements store.SOPs.
func (s *Store) CreateSOP(_ context.Context, doc *core.SOPDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := *doc
	d.University = nil
	if d.ID == "" {
		d.ID = uuid.NewString()
		doc.ID = d.ID
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	if d.UpdatedAt.IsZero() {
		d.UpdatedAt = d.CreatedAt
	}
	s.sops[d.ID] = d
	return nil
}

// GetSOP implements store.SOPs.
func (s *Store) GetSOP(_ context.Context, userID, id string) (*core.SOPDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.sops[id]
	if !ok || d.UserID != userID {
		return nil, store.ErrNotFound
	}
	if u, ok := s.universities[d.UniversityID]; ok {
		uc := u
		d.University = &uc
	}
	return &d, nil
}

// ListSOPs implements store.SOPs.
func (s *Store) ListSOPs(_ context.Context, userID string) ([]core.SOPDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.SOPDocument
	for _, d := range s.sops {
		if d.UserID != userID {
			continue
		}
		if u, ok := s.universities[d.UniversityID]; ok {
			uc := u
			d.University = &uc
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// UpdateSOP implements store.SOPs.
func (s *Store) UpdateSOP(_ context.Context, doc *core.SOPDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.sops[doc.ID]
	if !ok || existing.UserID != doc.UserID {
		return store.ErrNotFound
	}
	existing.Title = doc.Title
	existing.Content = doc.Content
	existing.IsDraft = doc.IsDraft
	existing.UpdatedAt = time.Now()
	s.sops[doc.ID] = existing
	doc.UpdatedAt = existing.UpdatedAt
	return nil
}

// DeleteSOP implements store.SOPs.
func (s *Store) DeleteSOP(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.sops[id]
	if !ok || d.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.sops, id)
	return nil
}

// CreateConversation implements store.Conversations.
func (s *Store) CreateConversation(_ context.Context, conv *core.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *conv
	if c.ID == "" {
		c.ID = uuid.NewString()
		conv.ID = c.ID
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	if c.LastMessageAt.IsZero() {
		c.LastMessageAt = c.CreatedAt
	}
	s.conversations[c.ID] = c
	return nil
}

// GetConversation implements store.Conversations.
func (s *Store) GetConversation(_ context.Context, userID, id string) (*core.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

// ListConversations implements store.Conversations.
func (s *Store) ListConversations(_ context.Context, userID string) ([]core.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Conversation
	for _, c := range s.conversations {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

// RenameConversation implements store.Conversations.
func (s *Store) RenameConversation(_ context.Context, userID, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok || c.UserID != userID {
		return store.ErrNotFound
	}
	c.Title = title
	s.conversations[id] = c
	return nil
}

// DeleteConversation implements store.Conversations.
func (s *Store) DeleteConversation(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[id]
	if !ok || c.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.conversations, id)
	delete(s.messages, id)
	return nil
}

// AppendMessage implements store.Conversations.
func (s *Store) AppendMessage(_ context.Context, msg *core.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := *msg
	if m.ID == "" {
		m.ID = uuid.NewString()
		msg.ID = m.ID
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], m)
	if c, ok := s.conversations[m.ConversationID]; ok {
		c.LastMessageAt = m.CreatedAt
		s.conversations[m.ConversationID] = c
	}
	return nil
}

// ListMessages implements store.Conversations.
func (s *Store) ListMessages(_ context.Context, conversationID string) ([]core.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[conversationID]
	out := make([]core.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}
