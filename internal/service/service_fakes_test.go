package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
)

// fakeStore is shared in-memory state backing the repository fakes.
type fakeStore struct {
	complaints map[string]domain.Complaint
	statuses   map[string]domain.Status
	categories map[string]domain.Category
	history    []domain.StatusHistory
	evidence   []domain.EvidencePhoto
	seq        int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		complaints: make(map[string]domain.Complaint),
		statuses:   make(map[string]domain.Status),
		categories: make(map[string]domain.Category),
	}
}

func (s *fakeStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *fakeStore) clone() *fakeStore {
	copied := &fakeStore{
		complaints: make(map[string]domain.Complaint, len(s.complaints)),
		statuses:   make(map[string]domain.Status, len(s.statuses)),
		categories: make(map[string]domain.Category, len(s.categories)),
		history:    append([]domain.StatusHistory(nil), s.history...),
		evidence:   append([]domain.EvidencePhoto(nil), s.evidence...),
		seq:        s.seq,
	}
	for k, v := range s.complaints {
		copied.complaints[k] = v
	}
	for k, v := range s.statuses {
		copied.statuses[k] = v
	}
	for k, v := range s.categories {
		copied.categories[k] = v
	}
	return copied
}

func (s *fakeStore) restore(from *fakeStore) {
	s.complaints = from.complaints
	s.statuses = from.statuses
	s.categories = from.categories
	s.history = from.history
	s.evidence = from.evidence
	s.seq = from.seq
}

// fakeTxRunner emulates transactional semantics over the shared store: the
// state is snapshotted before the callback and restored when it fails.
type fakeTxRunner struct {
	store *fakeStore
	err   error
}

func (r *fakeTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.err != nil {
		return r.err
	}
	snapshot := r.store.clone()
	if err := fn(ctx); err != nil {
		r.store.restore(snapshot)
		return err
	}
	return nil
}

type fakeComplaintRepo struct {
	store          *fakeStore
	createErr      error
	createErrQueue []error
	updateErr      error
}

func (r *fakeComplaintRepo) Create(ctx context.Context, complaint *domain.Complaint) error {
	if len(r.createErrQueue) > 0 {
		err := r.createErrQueue[0]
		r.createErrQueue = r.createErrQueue[1:]
		if err != nil {
			return err
		}
	}
	if r.createErr != nil {
		return r.createErr
	}
	complaint.ID = r.store.nextID("cmp")
	complaint.CreatedAt = time.Now()
	complaint.UpdatedAt = complaint.CreatedAt
	r.store.complaints[complaint.ID] = *complaint
	return nil
}

func (r *fakeComplaintRepo) Update(ctx context.Context, complaint *domain.Complaint) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.store.complaints[complaint.ID]; !ok {
		return pgx.ErrNoRows
	}
	complaint.UpdatedAt = time.Now()
	r.store.complaints[complaint.ID] = *complaint
	return nil
}

func (r *fakeComplaintRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.store.complaints[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.store.complaints, id)
	return nil
}

func (r *fakeComplaintRepo) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	complaint, ok := r.store.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := complaint
	return &copied, nil
}

func (r *fakeComplaintRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Complaint, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeComplaintRepo) GetByPublicKey(ctx context.Context, key string) (*domain.Complaint, error) {
	for _, complaint := range r.store.complaints {
		if complaint.PublicKey == key {
			copied := complaint
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeComplaintRepo) ListByReporter(ctx context.Context, reporterID string, limit, offset int) ([]domain.Complaint, error) {
	var out []domain.Complaint
	for _, complaint := range r.store.complaints {
		if complaint.ReporterID == reporterID {
			out = append(out, complaint)
		}
	}
	return out, nil
}

func (r *fakeComplaintRepo) ListWithFilter(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	var out []domain.Complaint
	for _, complaint := range r.store.complaints {
		if filter.ReporterID != nil && complaint.ReporterID != *filter.ReporterID {
			continue
		}
		if filter.CategoryID != nil && complaint.CategoryID != *filter.CategoryID {
			continue
		}
		if len(filter.StatusIDs) > 0 {
			matched := false
			for _, id := range filter.StatusIDs {
				if complaint.CurrentStatusID == id {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		if filter.SearchTerm != nil && !strings.Contains(complaint.Title, *filter.SearchTerm) {
			continue
		}
		out = append(out, complaint)
	}
	return out, nil
}

type fakeStatusRepo struct {
	store *fakeStore
}

func (r *fakeStatusRepo) Create(ctx context.Context, status *domain.Status) error {
	status.ID = r.store.nextID("st")
	status.CreatedAt = time.Now()
	r.store.statuses[status.ID] = *status
	return nil
}

func (r *fakeStatusRepo) ListAll(ctx context.Context) ([]domain.Status, error) {
	out := make([]domain.Status, 0, len(r.store.statuses))
	for _, status := range r.store.statuses {
		out = append(out, status)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].FlowOrder < out[i].FlowOrder {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *fakeStatusRepo) GetByID(ctx context.Context, id string) (*domain.Status, error) {
	status, ok := r.store.statuses[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := status
	return &copied, nil
}

func (r *fakeStatusRepo) GetByName(ctx context.Context, name string) (*domain.Status, error) {
	for _, status := range r.store.statuses {
		if status.Name == name {
			copied := status
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeHistoryRepo struct {
	store     *fakeStore
	appendErr error
}

func (r *fakeHistoryRepo) Append(ctx context.Context, entry *domain.StatusHistory) error {
	if r.appendErr != nil {
		return r.appendErr
	}
	entry.ID = r.store.nextID("hist")
	entry.CreatedAt = time.Now()
	r.store.history = append(r.store.history, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByComplaint(ctx context.Context, complaintID string) ([]domain.StatusHistory, error) {
	var out []domain.StatusHistory
	for _, entry := range r.store.history {
		if entry.ComplaintID == complaintID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *fakeHistoryRepo) DeleteByComplaint(ctx context.Context, complaintID string) (int64, error) {
	var kept []domain.StatusHistory
	var removed int64
	for _, entry := range r.store.history {
		if entry.ComplaintID == complaintID {
			removed++
			continue
		}
		kept = append(kept, entry)
	}
	r.store.history = kept
	return removed, nil
}

type fakeEvidenceRepo struct {
	store *fakeStore
}

func (r *fakeEvidenceRepo) AttachMany(ctx context.Context, photos []*domain.EvidencePhoto) (int, error) {
	for _, photo := range photos {
		photo.ID = r.store.nextID("ev")
		photo.UploadedAt = time.Now()
		r.store.evidence = append(r.store.evidence, *photo)
	}
	return len(photos), nil
}

func (r *fakeEvidenceRepo) ListByComplaint(ctx context.Context, complaintID string) ([]domain.EvidencePhoto, error) {
	var out []domain.EvidencePhoto
	for _, photo := range r.store.evidence {
		if photo.ComplaintID == complaintID {
			out = append(out, photo)
		}
	}
	return out, nil
}

func (r *fakeEvidenceRepo) DeleteByComplaint(ctx context.Context, complaintID string) ([]string, error) {
	var kept []domain.EvidencePhoto
	var keys []string
	for _, photo := range r.store.evidence {
		if photo.ComplaintID == complaintID {
			keys = append(keys, photo.StorageKey)
			continue
		}
		kept = append(kept, photo)
	}
	r.store.evidence = kept
	return keys, nil
}

type fakeCategoryRepo struct {
	store *fakeStore
}

func (r *fakeCategoryRepo) Create(ctx context.Context, category *domain.Category) error {
	category.ID = r.store.nextID("cat")
	category.CreatedAt = time.Now()
	category.UpdatedAt = category.CreatedAt
	r.store.categories[category.ID] = *category
	return nil
}

func (r *fakeCategoryRepo) Update(ctx context.Context, category *domain.Category) error {
	if _, ok := r.store.categories[category.ID]; !ok {
		return pgx.ErrNoRows
	}
	category.UpdatedAt = time.Now()
	r.store.categories[category.ID] = *category
	return nil
}

func (r *fakeCategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	category, ok := r.store.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := category
	return &copied, nil
}

func (r *fakeCategoryRepo) ListActive(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	for _, category := range r.store.categories {
		if category.IsActive {
			out = append(out, category)
		}
	}
	return out, nil
}

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event(nil), d.events...)
}
