// Package reportstest provides in-memory implementations of the report
// lifecycle ports.
package reportstest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/agrosense/plant-health/internal/models"
	"github.com/agrosense/plant-health/internal/reports"
	"github.com/agrosense/plant-health/internal/storage"
)

// MemStore is a transactional-enough report store.
type MemStore struct {
	mu      sync.Mutex
	nextID  int64
	reports map[int64]models.Report
	keys    map[string]int64
	clock   time.Time

	// Users resolve owner names and roles.
	Users map[int64]models.User
	// Err fails every call when set.
	Err error
	// CommitErr fails Create after finalize ran, as a failed commit would.
	CommitErr error
}

// NewMemStore returns an empty store with the given users.
func NewMemStore(users ...models.User) *MemStore {
	s := &MemStore{
		reports: make(map[int64]models.Report),
		keys:    make(map[string]int64),
		clock:   time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC),
		Users:   make(map[int64]models.User),
	}
	for _, u := range users {
		s.Users[u.ID] = u
	}
	return s
}

func claimKey(ownerID int64, key string) string {
	return fmt.Sprintf("%d:%s", ownerID, key)
}

func (s *MemStore) Create(_ context.Context, report *models.Report, idempotencyKey string, finalize func(*models.Report) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if idempotencyKey != "" {
		if _, ok := s.keys[claimKey(report.OwnerID, idempotencyKey)]; ok {
			return reports.ErrKeyClaimed
		}
	}

	draft := *report
	draft.ID = s.nextID + 1
	s.clock = s.clock.Add(time.Minute)
	draft.GeneratedAt = s.clock
	if u, ok := s.Users[draft.OwnerID]; ok {
		draft.OwnerName = u.FullName
		draft.OwnerRole = u.RoleName
	}
	if err := finalize(&draft); err != nil {
		return err
	}
	if s.CommitErr != nil {
		return s.CommitErr
	}

	s.nextID = draft.ID
	s.reports[draft.ID] = draft
	if idempotencyKey != "" {
		s.keys[claimKey(draft.OwnerID, idempotencyKey)] = draft.ID
	}
	*report = draft
	return nil
}

func (s *MemStore) FindByIdempotencyKey(_ context.Context, ownerID int64, key string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	id, ok := s.keys[claimKey(ownerID, key)]
	if !ok {
		return nil, nil
	}
	r, ok := s.reports[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *MemStore) Get(_ context.Context, id int64) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	r, ok := s.reports[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *MemStore) List(_ context.Context, ownerID *int64, limit, offset int) ([]models.Report, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}
	var all []models.Report
	for _, r := range s.reports {
		if ownerID == nil || r.OwnerID == *ownerID {
			all = append(all, r)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].GeneratedAt.Equal(all[j].GeneratedAt) {
			return all[i].GeneratedAt.After(all[j].GeneratedAt)
		}
		return all[i].ID > all[j].ID
	})
	total := len(all)
	if offset >= total {
		return []models.Report{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *MemStore) Update(_ context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	current, ok := s.reports[report.ID]
	if !ok {
		return fmt.Errorf("report %d does not exist", report.ID)
	}
	current.ReportType = report.ReportType
	current.PeriodStart = report.PeriodStart
	current.PeriodEnd = report.PeriodEnd
	s.reports[report.ID] = current
	return nil
}

func (s *MemStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.reports, id)
	for k, v := range s.keys {
		if v == id {
			delete(s.keys, k)
		}
	}
	return nil
}

// Put stores a report as-is, bypassing Create.
func (s *MemStore) Put(r models.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ID] = r
	if r.ID > s.nextID {
		s.nextID = r.ID
	}
}

// Len returns the number of stored reports.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}

// MemArchive keeps archive files in memory.
type MemArchive struct {
	mu    sync.Mutex
	files map[string][]byte

	// WriteErr fails every Write when set.
	WriteErr error
}

// NewMemArchive returns an empty archive.
func NewMemArchive() *MemArchive {
	return &MemArchive{files: make(map[string][]byte)}
}

func (a *MemArchive) PathFor(reportID int64) string {
	return fmt.Sprintf("mem/report_%d.json", reportID)
}

func (a *MemArchive) Write(path string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.WriteErr != nil {
		return a.WriteErr
	}
	a.files[path] = append([]byte(nil), data...)
	return nil
}

func (a *MemArchive) Read(path string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
	}
	return append([]byte(nil), data...), nil
}

func (a *MemArchive) Exists(path string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.files[path]
	return ok
}

func (a *MemArchive) Remove(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.files, path)
	return nil
}

// Paths lists stored file paths.
func (a *MemArchive) Paths() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.files))
	for p := range a.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// MemAudit records audit entries in memory.
type MemAudit struct {
	mu      sync.Mutex
	Entries []models.AuditLog
	Err     error
}

func (m *MemAudit) Record(_ context.Context, entry *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	e := *entry
	e.ID = int64(len(m.Entries) + 1)
	e.CreatedAt = time.Now()
	m.Entries = append(m.Entries, e)
	return nil
}

func (m *MemAudit) List(_ context.Context, limit, offset int) ([]models.AuditLog, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, 0, m.Err
	}
	total := len(m.Entries)
	out := make([]models.AuditLog, 0, limit)
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.Entries[i])
	}
	return out, total, nil
}
