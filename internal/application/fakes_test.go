package application

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"drone-survey-system/internal/domain"
	"drone-survey-system/internal/ports"
)

type fakeMissionRepo struct {
	mu       sync.Mutex
	missions map[uuid.UUID]domain.Mission
	// beforeSwap змінює сховище перед compare-and-swap, імітуючи конкурентний запис
	beforeSwap func()
}

func newFakeMissionRepo() *fakeMissionRepo {
	return &fakeMissionRepo{missions: make(map[uuid.UUID]domain.Mission)}
}

func (r *fakeMissionRepo) Save(_ context.Context, m *domain.Mission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missions[m.ID] = *m
	return nil
}

func (r *fakeMissionRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.missions[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "mission", ID: id}
	}
	return &m, nil
}

func (r *fakeMissionRepo) FindAll(_ context.Context, f domain.MissionFilter) ([]*domain.Mission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Mission, 0)
	for _, m := range r.missions {
		m := m
		if f.CreatedBy != uuid.Nil && m.CreatedBy != f.CreatedBy {
			continue
		}
		if f.Status != "" && m.Status != f.Status {
			continue
		}
		if f.MissionType != "" && m.MissionType != f.MissionType {
			continue
		}
		if !inWindow(m.CreatedAt, f.Window) {
			continue
		}
		out = append(out, &m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeMissionRepo) swap(m *domain.Mission, expected domain.MissionStatus, apply func(stored *domain.Mission)) error {
	if r.beforeSwap != nil {
		r.beforeSwap()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.missions[m.ID]
	if !ok {
		return &domain.NotFoundError{Entity: "mission", ID: m.ID}
	}
	if stored.Status != expected {
		return &domain.ConflictError{MissionID: m.ID, Expected: expected}
	}
	apply(&stored)
	r.missions[m.ID] = stored
	return nil
}

func (r *fakeMissionRepo) Update(_ context.Context, m *domain.Mission, expected domain.MissionStatus) error {
	return r.swap(m, expected, func(stored *domain.Mission) {
		status := stored.Status
		*stored = *m
		stored.Status = status
	})
}

func (r *fakeMissionRepo) UpdateStatus(_ context.Context, m *domain.Mission, expected domain.MissionStatus) error {
	return r.swap(m, expected, func(stored *domain.Mission) {
		stored.Status = m.Status
		stored.StartedAt = m.StartedAt
		stored.CompletedAt = m.CompletedAt
		stored.Duration = m.Duration
		stored.UpdatedAt = m.UpdatedAt
	})
}

func (r *fakeMissionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.missions[id]
	if !ok {
		return &domain.NotFoundError{Entity: "mission", ID: id}
	}
	if m.Status != domain.MissionStatusPending && m.Status != domain.MissionStatusCancelled {
		return domain.ErrNotEditable
	}
	delete(r.missions, id)
	return nil
}

func (r *fakeMissionRepo) status(id uuid.UUID) domain.MissionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.missions[id].Status
}

func (r *fakeMissionRepo) setStatus(id uuid.UUID, s domain.MissionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.missions[id]
	m.Status = s
	r.missions[id] = m
}

type fakeReportRepo struct {
	mu       sync.Mutex
	reports  map[uuid.UUID]domain.Report
	findAlls int
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[uuid.UUID]domain.Report)}
}

func (r *fakeReportRepo) Save(_ context.Context, rep *domain.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[rep.ID] = *rep
	return nil
}

func (r *fakeReportRepo) FindByID(_ context.Context, id uuid.UUID) (*domain.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rep, ok := r.reports[id]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "report", ID: id}
	}
	return &rep, nil
}

func (r *fakeReportRepo) matching(f domain.ReportFilter) []*domain.Report {
	out := make([]*domain.Report, 0)
	for _, rep := range r.reports {
		rep := rep
		if f.GeneratedBy != uuid.Nil && rep.GeneratedBy != f.GeneratedBy {
			continue
		}
		if f.ReportType != "" && rep.ReportType != f.ReportType {
			continue
		}
		if !inWindow(rep.CreatedAt, f.Window) {
			continue
		}
		out = append(out, &rep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeReportRepo) FindAll(_ context.Context, f domain.ReportFilter) ([]*domain.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findAlls++
	out := r.matching(f)
	if f.Limit > 0 {
		if f.Offset >= len(out) {
			return []*domain.Report{}, nil
		}
		out = out[f.Offset:]
		if len(out) > f.Limit {
			out = out[:f.Limit]
		}
	}
	return out, nil
}

func (r *fakeReportRepo) Count(_ context.Context, f domain.ReportFilter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matching(f)), nil
}

func (r *fakeReportRepo) Update(_ context.Context, rep *domain.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reports[rep.ID]; !ok {
		return &domain.NotFoundError{Entity: "report", ID: rep.ID}
	}
	r.reports[rep.ID] = *rep
	return nil
}

func (r *fakeReportRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reports[id]; !ok {
		return &domain.NotFoundError{Entity: "report", ID: id}
	}
	delete(r.reports, id)
	return nil
}

func inWindow(t time.Time, w domain.TimeWindow) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}

type fakeArchive struct {
	objects map[string][]byte
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{objects: make(map[string][]byte)}
}

func (a *fakeArchive) Save(_ context.Context, reportID uuid.UUID, name, _ string, data io.Reader, _ int64) (string, error) {
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	key := reportID.String() + "/" + name
	a.objects[key] = raw
	return key, nil
}

func (a *fakeArchive) Get(_ context.Context, reportID uuid.UUID, name string) (io.ReadCloser, error) {
	raw, ok := a.objects[reportID.String()+"/"+name]
	if !ok {
		return nil, &domain.NotFoundError{Entity: "archived report", ID: reportID}
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (a *fakeArchive) List(_ context.Context, reportID uuid.UUID) ([]ports.ArchivedObject, error) {
	out := make([]ports.ArchivedObject, 0)
	prefix := reportID.String() + "/"
	for key, raw := range a.objects {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, ports.ArchivedObject{Name: key[len(prefix):], Size: int64(len(raw))})
		}
	}
	return out, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.MissionEvent
}

func (p *fakePublisher) PublishMissionEvent(e domain.MissionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

type fakeRecorder struct {
	mu          sync.Mutex
	transitions []string
	reports     []string
	cacheHits   int
	cacheMisses int
	analytics   int
}

func (r *fakeRecorder) RecordTransition(from, to, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, from+">"+to+":"+result)
}

func (r *fakeRecorder) RecordReport(reportType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, reportType)
}

func (r *fakeRecorder) ObserveAnalytics(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.analytics++
}

func (r *fakeRecorder) RecordStatsCache(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.cacheHits++
	} else {
		r.cacheMisses++
	}
}
