package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// complaintRegisteredComment is written into the ledger entry created at
// complaint birth.
const complaintRegisteredComment = "complaint registered"

// maxKeyAttempts bounds how often Create regenerates the public key after an
// insert collides on the public_key unique constraint.
const maxKeyAttempts = 3

// TxRunner executes a function inside a single atomic transaction, retrying
// on write conflicts. Implemented by persistence.TxManager.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// LifecycleService orchestrates the complaint lifecycle: creation with the
// first ledger entry, validated status transitions, and cascading deletion.
// Every mutating operation is all-or-nothing; the ledger and the complaint
// record never diverge.
type LifecycleService struct {
	tx         TxRunner
	complaints repository.ComplaintRepository
	statuses   repository.StatusRepository
	history    repository.HistoryRepository
	evidence   repository.EvidenceRepository
	categories repository.CategoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// LifecycleDependencies bundles requirements for the lifecycle service.
type LifecycleDependencies struct {
	Tx            TxRunner
	ComplaintRepo repository.ComplaintRepository
	StatusRepo    repository.StatusRepository
	HistoryRepo   repository.HistoryRepository
	EvidenceRepo  repository.EvidenceRepository
	CategoryRepo  repository.CategoryRepository
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LifecycleService{
		tx:         deps.Tx,
		complaints: deps.ComplaintRepo,
		statuses:   deps.StatusRepo,
		history:    deps.HistoryRepo,
		evidence:   deps.EvidenceRepo,
		categories: deps.CategoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// ComplaintCreateInput describes complaint creation payload.
type ComplaintCreateInput struct {
	CategoryID  string
	Title       string
	Description string
	Latitude    *float64
	Longitude   *float64
	Address     *string
	IsAnonymous bool
}

// ComplaintUpdateInput describes reporter-side field edits.
type ComplaintUpdateInput struct {
	Title       *string
	Description *string
	Latitude    *float64
	Longitude   *float64
	Address     *string
}

// Create registers a complaint in the initial status and writes the birth
// ledger entry in the same transaction. Either both records exist afterward
// or neither does.
func (s *LifecycleService) Create(ctx context.Context, reporterID string, input ComplaintCreateInput) (*domain.Complaint, error) {
	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		return nil, notFoundOr(err, "category")
	}
	if !category.IsActive {
		return nil, apperrors.NewValidationError("category inactive", nil)
	}

	initial, err := s.resolveInitialStatus(ctx)
	if err != nil {
		return nil, err
	}

	complaint := &domain.Complaint{
		PublicKey:       generateComplaintKey(),
		ReporterID:      reporterID,
		CategoryID:      input.CategoryID,
		CurrentStatusID: initial.ID,
		Title:           strings.TrimSpace(input.Title),
		Description:     strings.TrimSpace(input.Description),
		Latitude:        input.Latitude,
		Longitude:       input.Longitude,
		Address:         input.Address,
		IsAnonymous:     input.IsAnonymous,
	}

	for attempt := 1; ; attempt++ {
		err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
			if err := s.complaints.Create(txCtx, complaint); err != nil {
				return err
			}
			entry := &domain.StatusHistory{
				ComplaintID: complaint.ID,
				NewStatusID: initial.ID,
				ChangedByID: reporterID,
				Comment:     complaintRegisteredComment,
			}
			return s.history.Append(txCtx, entry)
		})
		if err == nil {
			break
		}
		if !apperrors.IsUniqueViolation(err, "public_key") {
			return nil, err
		}
		if attempt >= maxKeyAttempts {
			return nil, apperrors.NewConflict("could not allocate a unique complaint key", nil)
		}
		s.logger.Warn("complaint key collision, regenerating",
			zap.String("public_key", complaint.PublicKey),
			zap.Int("attempt", attempt))
		complaint.PublicKey = generateComplaintKey()
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintRegistered,
		ComplaintID: complaint.ID,
		Actor:       citizenActor(reporterID),
		Payload: events.ComplaintRegisteredPayload{
			CategoryID:  complaint.CategoryID,
			Title:       complaint.Title,
			IsAnonymous: complaint.IsAnonymous,
		},
	})
	return complaint, nil
}

// ChangeStatus moves a complaint to a new status and appends the matching
// ledger entry atomically. The complaint is re-read under a row lock inside
// the transaction so concurrent calls serialize; the window rule is checked
// against that fresh state, never the caller's.
func (s *LifecycleService) ChangeStatus(ctx context.Context, complaintID, newStatusID string, actorType domain.SubjectType, actorID, comment string) (*domain.Complaint, error) {
	var updated *domain.Complaint
	var previousID string

	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		complaint, err := s.complaints.GetByIDForUpdate(txCtx, complaintID)
		if err != nil {
			return notFoundOr(err, "complaint")
		}
		current, err := s.statuses.GetByID(txCtx, complaint.CurrentStatusID)
		if err != nil {
			return notFoundOr(err, "current status")
		}
		proposed, err := s.statuses.GetByID(txCtx, newStatusID)
		if err != nil {
			return notFoundOr(err, "status")
		}
		if !domain.IsTransitionAllowed(*current, *proposed) {
			return apperrors.NewInvalidTransition(current.Name, proposed.Name)
		}

		previousID = complaint.CurrentStatusID
		complaint.CurrentStatusID = proposed.ID
		if err := s.complaints.Update(txCtx, complaint); err != nil {
			return err
		}

		prev := previousID
		entry := &domain.StatusHistory{
			ComplaintID:      complaint.ID,
			PreviousStatusID: &prev,
			NewStatusID:      proposed.ID,
			ChangedByID:      actorID,
			Comment:          strings.TrimSpace(comment),
		}
		if err := s.history.Append(txCtx, entry); err != nil {
			return err
		}
		updated = complaint
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintStatusChanged,
		ComplaintID: updated.ID,
		Actor:       actorFor(actorType, actorID),
		Payload: events.ComplaintStatusChangedPayload{
			PreviousStatusID: previousID,
			NewStatusID:      updated.CurrentStatusID,
			Comment:          strings.TrimSpace(comment),
		},
	})
	return updated, nil
}

// Delete removes a complaint together with its ledger entries and evidence
// index rows in one transaction, and returns the storage keys of the removed
// evidence so the caller can delete the underlying files after commit.
// Deletion is refused unless the complaint still sits in the initial status.
func (s *LifecycleService) Delete(ctx context.Context, complaintID string, actorType domain.SubjectType, actorID string) ([]string, error) {
	var storageKeys []string

	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		storageKeys = nil
		complaint, err := s.complaints.GetByIDForUpdate(txCtx, complaintID)
		if err != nil {
			return notFoundOr(err, "complaint")
		}
		current, err := s.statuses.GetByID(txCtx, complaint.CurrentStatusID)
		if err != nil {
			return notFoundOr(err, "current status")
		}
		if current.Name != domain.StatusNameRegistered {
			return apperrors.NewConflict("complaint can only be deleted while still in the initial status", map[string]any{
				"current_status": current.Name,
			})
		}

		keys, err := s.evidence.DeleteByComplaint(txCtx, complaintID)
		if err != nil {
			return err
		}
		if _, err := s.history.DeleteByComplaint(txCtx, complaintID); err != nil {
			return err
		}
		if err := s.complaints.Delete(txCtx, complaintID); err != nil {
			return err
		}
		storageKeys = keys
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintDeleted,
		ComplaintID: complaintID,
		Actor:       actorFor(actorType, actorID),
		Payload: events.ComplaintDeletedPayload{
			StorageKeys: storageKeys,
		},
	})
	return storageKeys, nil
}

// DeleteAsReporter enforces ownership before deleting.
func (s *LifecycleService) DeleteAsReporter(ctx context.Context, reporterID, complaintID string) ([]string, error) {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, notFoundOr(err, "complaint")
	}
	if complaint.ReporterID != reporterID {
		return nil, apperrors.NewForbidden("not the reporter of this complaint")
	}
	return s.Delete(ctx, complaintID, domain.SubjectTypeCitizen, reporterID)
}

// UpdateDetails edits title/description/location. Edits are allowed only
// while the complaint is still in the initial status.
func (s *LifecycleService) UpdateDetails(ctx context.Context, reporterID, complaintID string, input ComplaintUpdateInput) (*domain.Complaint, error) {
	var updated *domain.Complaint

	err := s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		complaint, err := s.complaints.GetByIDForUpdate(txCtx, complaintID)
		if err != nil {
			return notFoundOr(err, "complaint")
		}
		if complaint.ReporterID != reporterID {
			return apperrors.NewForbidden("not the reporter of this complaint")
		}
		current, err := s.statuses.GetByID(txCtx, complaint.CurrentStatusID)
		if err != nil {
			return notFoundOr(err, "current status")
		}
		if current.Name != domain.StatusNameRegistered {
			return apperrors.NewConflict("complaint can no longer be edited", map[string]any{
				"current_status": current.Name,
			})
		}

		if input.Title != nil {
			complaint.Title = strings.TrimSpace(*input.Title)
		}
		if input.Description != nil {
			complaint.Description = strings.TrimSpace(*input.Description)
		}
		if input.Latitude != nil {
			complaint.Latitude = input.Latitude
		}
		if input.Longitude != nil {
			complaint.Longitude = input.Longitude
		}
		if input.Address != nil {
			complaint.Address = input.Address
		}
		if err := s.complaints.Update(txCtx, complaint); err != nil {
			return err
		}
		updated = complaint
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:        events.EventComplaintUpdated,
		ComplaintID: updated.ID,
		Actor:       citizenActor(reporterID),
		Payload:     events.ComplaintUpdatedPayload{Title: updated.Title},
	})
	return updated, nil
}

// GetDetail fetches a complaint with its full ledger and evidence index.
func (s *LifecycleService) GetDetail(ctx context.Context, complaintID string) (*domain.Complaint, []domain.StatusHistory, []domain.EvidencePhoto, error) {
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return nil, nil, nil, notFoundOr(err, "complaint")
	}
	history, err := s.history.ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, nil, nil, err
	}
	evidence, err := s.evidence.ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, nil, nil, err
	}
	return complaint, history, evidence, nil
}

// GetDetailForReporter fetches a complaint ensuring ownership.
func (s *LifecycleService) GetDetailForReporter(ctx context.Context, reporterID, complaintID string) (*domain.Complaint, []domain.StatusHistory, []domain.EvidencePhoto, error) {
	complaint, history, evidence, err := s.GetDetail(ctx, complaintID)
	if err != nil {
		return nil, nil, nil, err
	}
	if complaint.ReporterID != reporterID {
		return nil, nil, nil, apperrors.NewForbidden("not the reporter of this complaint")
	}
	return complaint, history, evidence, nil
}

// ListForReporter returns paginated complaints filed by a citizen.
func (s *LifecycleService) ListForReporter(ctx context.Context, reporterID string, limit, offset int) ([]domain.Complaint, error) {
	return s.complaints.ListByReporter(ctx, reporterID, limit, offset)
}

// ListWithFilter returns complaints matching authority search criteria.
func (s *LifecycleService) ListWithFilter(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	return s.complaints.ListWithFilter(ctx, filter)
}

// ListHistory returns the ordered ledger for a complaint.
func (s *LifecycleService) ListHistory(ctx context.Context, complaintID string) ([]domain.StatusHistory, error) {
	return s.history.ListByComplaint(ctx, complaintID)
}

// resolveInitialStatus looks up the "Registered" catalog entry. When the
// catalog is entirely empty (a fresh deployment whose seed migration never
// ran), the default catalog is seeded here as a fallback; migrations remain
// the primary seeding path.
func (s *LifecycleService) resolveInitialStatus(ctx context.Context) (*domain.Status, error) {
	status, err := s.statuses.GetByName(ctx, domain.StatusNameRegistered)
	if err == nil {
		return status, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	all, err := s.statuses.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) > 0 {
		// Catalog exists but lacks the initial entry; seeding over it could
		// clash with operator-managed data, so surface instead.
		return nil, apperrors.NewNotFound("initial status", map[string]any{"name": domain.StatusNameRegistered})
	}

	s.logger.Warn("status catalog empty, seeding defaults", zap.String("initial", domain.StatusNameRegistered))
	defaults := domain.DefaultStatuses()
	for i := range defaults {
		if err := s.statuses.Create(ctx, &defaults[i]); err != nil {
			return nil, err
		}
	}
	return s.statuses.GetByName(ctx, domain.StatusNameRegistered)
}

func generateComplaintKey() string {
	return "DNC-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func (s *LifecycleService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	publishWithDefaults(ctx, s.dispatcher, event)
}

func publishWithDefaults(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func citizenActor(userID string) events.Actor {
	return events.Actor{
		Type:   domain.SubjectTypeCitizen,
		UserID: &userID,
	}
}

func authorityActor(authorityID string) events.Actor {
	return events.Actor{
		Type:        domain.SubjectTypeAuthority,
		AuthorityID: &authorityID,
	}
}

func actorFor(subject domain.SubjectType, id string) events.Actor {
	switch subject {
	case domain.SubjectTypeAuthority:
		return authorityActor(id)
	default:
		return citizenActor(id)
	}
}

// notFoundOr maps pgx.ErrNoRows to a NOT_FOUND domain error, passing other
// errors through untouched.
func notFoundOr(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}
