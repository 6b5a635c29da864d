package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

type lifecycleFixture struct {
	store      *fakeStore
	tx         *fakeTxRunner
	complaints *fakeComplaintRepo
	statuses   *fakeStatusRepo
	history    *fakeHistoryRepo
	evidence   *fakeEvidenceRepo
	categories *fakeCategoryRepo
	dispatcher *recordingDispatcher
	svc        *service.LifecycleService

	categoryID string
	statusIDs  map[string]string
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()

	store := newFakeStore()
	f := &lifecycleFixture{
		store:      store,
		tx:         &fakeTxRunner{store: store},
		complaints: &fakeComplaintRepo{store: store},
		statuses:   &fakeStatusRepo{store: store},
		history:    &fakeHistoryRepo{store: store},
		evidence:   &fakeEvidenceRepo{store: store},
		categories: &fakeCategoryRepo{store: store},
		dispatcher: &recordingDispatcher{},
		statusIDs:  make(map[string]string),
	}

	for _, status := range domain.DefaultStatuses() {
		s := status
		require.NoError(t, f.statuses.Create(context.Background(), &s))
		f.statusIDs[s.Name] = s.ID
	}
	category := &domain.Category{Name: "Public Lighting", IsActive: true}
	require.NoError(t, f.categories.Create(context.Background(), category))
	f.categoryID = category.ID

	f.svc = service.NewLifecycleService(service.LifecycleDependencies{
		Tx:            f.tx,
		ComplaintRepo: f.complaints,
		StatusRepo:    f.statuses,
		HistoryRepo:   f.history,
		EvidenceRepo:  f.evidence,
		CategoryRepo:  f.categories,
		Dispatcher:    f.dispatcher,
	})
	return f
}

func (f *lifecycleFixture) createComplaint(t *testing.T, reporterID string) *domain.Complaint {
	t.Helper()
	complaint, err := f.svc.Create(context.Background(), reporterID, service.ComplaintCreateInput{
		CategoryID:  f.categoryID,
		Title:       "Broken streetlight",
		Description: "The light on 5th has been out for a week",
	})
	require.NoError(t, err)
	return complaint
}

func domainErrCode(t *testing.T, err error) string {
	t.Helper()
	var de *apperrors.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

func TestCreateWritesComplaintAndBirthEntry(t *testing.T) {
	f := newLifecycleFixture(t)

	complaint := f.createComplaint(t, "user-1")

	assert.NotEmpty(t, complaint.ID)
	assert.True(t, strings.HasPrefix(complaint.PublicKey, "DNC-"))
	assert.Equal(t, f.statusIDs[domain.StatusNameRegistered], complaint.CurrentStatusID)

	history, err := f.history.ListByComplaint(context.Background(), complaint.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].PreviousStatusID)
	assert.Equal(t, complaint.CurrentStatusID, history[0].NewStatusID)
	assert.Equal(t, "user-1", history[0].ChangedByID)

	published := f.dispatcher.published()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventComplaintRegistered, published[0].Type)
}

func TestCreateRollsBackWhenLedgerWriteFails(t *testing.T) {
	f := newLifecycleFixture(t)
	f.history.appendErr = errors.New("ledger write failed")

	_, err := f.svc.Create(context.Background(), "user-1", service.ComplaintCreateInput{
		CategoryID:  f.categoryID,
		Title:       "t",
		Description: "d",
	})
	require.Error(t, err)

	assert.Empty(t, f.store.complaints, "complaint must not survive a failed ledger write")
	assert.Empty(t, f.store.history)
	assert.Empty(t, f.dispatcher.published())
}

func publicKeyViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "complaints_public_key_key"}
}

func TestCreateRegeneratesKeyOnCollision(t *testing.T) {
	f := newLifecycleFixture(t)
	f.complaints.createErrQueue = []error{publicKeyViolation()}

	complaint := f.createComplaint(t, "user-1")

	assert.True(t, strings.HasPrefix(complaint.PublicKey, "DNC-"))
	assert.Len(t, f.store.complaints, 1)

	history, err := f.history.ListByComplaint(context.Background(), complaint.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "the discarded attempt must not leave a ledger entry")
	require.Len(t, f.dispatcher.published(), 1)
}

func TestCreateGivesUpAfterRepeatedKeyCollisions(t *testing.T) {
	f := newLifecycleFixture(t)
	f.complaints.createErrQueue = []error{
		publicKeyViolation(), publicKeyViolation(), publicKeyViolation(),
	}

	_, err := f.svc.Create(context.Background(), "user-1", service.ComplaintCreateInput{
		CategoryID:  f.categoryID,
		Title:       "t",
		Description: "d",
	})
	assert.Equal(t, "CONFLICT", domainErrCode(t, err))

	assert.Empty(t, f.complaints.createErrQueue, "every allowed attempt must have been used")
	assert.Empty(t, f.store.complaints)
	assert.Empty(t, f.store.history)
	assert.Empty(t, f.dispatcher.published())
}

func TestCreateDoesNotRetryUnrelatedUniqueViolations(t *testing.T) {
	f := newLifecycleFixture(t)
	f.complaints.createErrQueue = []error{
		&pgconn.PgError{Code: "23505", ConstraintName: "complaints_reporter_fk"},
	}

	_, err := f.svc.Create(context.Background(), "user-1", service.ComplaintCreateInput{
		CategoryID:  f.categoryID,
		Title:       "t",
		Description: "d",
	})
	require.Error(t, err)

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Empty(t, f.store.complaints)
}

func TestCreateRejectsInactiveCategory(t *testing.T) {
	f := newLifecycleFixture(t)
	category := &domain.Category{Name: "Archived", IsActive: false}
	require.NoError(t, f.categories.Create(context.Background(), category))

	_, err := f.svc.Create(context.Background(), "user-1", service.ComplaintCreateInput{
		CategoryID:  category.ID,
		Title:       "t",
		Description: "d",
	})
	assert.Equal(t, "VALIDATION_FAILED", domainErrCode(t, err))
}

func TestCreateSeedsEmptyCatalog(t *testing.T) {
	f := newLifecycleFixture(t)
	f.store.statuses = map[string]domain.Status{}

	complaint, err := f.svc.Create(context.Background(), "user-1", service.ComplaintCreateInput{
		CategoryID:  f.categoryID,
		Title:       "t",
		Description: "d",
	})
	require.NoError(t, err)

	all, err := f.statuses.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, len(domain.DefaultStatuses()))

	initial, err := f.statuses.GetByName(context.Background(), domain.StatusNameRegistered)
	require.NoError(t, err)
	assert.Equal(t, initial.ID, complaint.CurrentStatusID)
}

func TestCreateFailsWhenCatalogLacksInitialStatus(t *testing.T) {
	f := newLifecycleFixture(t)
	delete(f.store.statuses, f.statusIDs[domain.StatusNameRegistered])

	_, err := f.svc.Create(context.Background(), "user-1", service.ComplaintCreateInput{
		CategoryID:  f.categoryID,
		Title:       "t",
		Description: "d",
	})
	assert.Equal(t, "NOT_FOUND", domainErrCode(t, err))
}

func TestChangeStatusAppendsChainedEntry(t *testing.T) {
	f := newLifecycleFixture(t)
	complaint := f.createComplaint(t, "user-1")

	updated, err := f.svc.ChangeStatus(context.Background(), complaint.ID, f.statusIDs["In Review"],
		domain.SubjectTypeAuthority, "auth-1", "taking a look")
	require.NoError(t, err)
	assert.Equal(t, f.statusIDs["In Review"], updated.CurrentStatusID)

	history, err := f.history.ListByComplaint(context.Background(), complaint.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.NotNil(t, history[1].PreviousStatusID)
	assert.Equal(t, history[0].NewStatusID, *history[1].PreviousStatusID)
	assert.Equal(t, f.statusIDs["In Review"], history[1].NewStatusID)
	assert.Equal(t, "auth-1", history[1].ChangedByID)
	assert.Equal(t, "taking a look", history[1].Comment)
}

func TestChangeStatusRejectsJumpBeyondWindow(t *testing.T) {
	f := newLifecycleFixture(t)
	complaint := f.createComplaint(t, "user-1")

	far := &domain.Status{Name: "Escalated", FlowOrder: 1 + domain.TransitionWindowAhead + 1}
	require.NoError(t, f.statuses.Create(context.Background(), far))

	_, err := f.svc.ChangeStatus(context.Background(), complaint.ID, far.ID,
		domain.SubjectTypeAuthority, "auth-1", "")
	assert.Equal(t, "INVALID_TRANSITION", domainErrCode(t, err))

	// the rejected transition leaves both the complaint and the ledger untouched
	stored, err := f.complaints.GetByID(context.Background(), complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, f.statusIDs[domain.StatusNameRegistered], stored.CurrentStatusID)

	history, err := f.history.ListByComplaint(context.Background(), complaint.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestChangeStatusAllowsBoundaryOfWindow(t *testing.T) {
	f := newLifecycleFixture(t)
	complaint := f.createComplaint(t, "user-1")

	edge := &domain.Status{Name: "Window Edge", FlowOrder: 1 + domain.TransitionWindowAhead}
	require.NoError(t, f.statuses.Create(context.Background(), edge))

	updated, err := f.svc.ChangeStatus(context.Background(), complaint.ID, edge.ID,
		domain.SubjectTypeAuthority, "auth-1", "")
	require.NoError(t, err)
	assert.Equal(t, edge.ID, updated.CurrentStatusID)
}

func TestChangeStatusAllowsRevertWithinWindow(t *testing.T) {
	f := newLifecycleFixture(t)
	complaint := f.createComplaint(t, "user-1")

	// move forward then revert back to the initial status
	_, err := f.svc.ChangeStatus(context.Background(), complaint.ID, f.statusIDs["In Progress"],
		domain.SubjectTypeAuthority, "auth-1", "")
	require.NoError(t, err)

	updated, err := f.svc.ChangeStatus(context.Background(), complaint.ID, f.statusIDs[domain.StatusNameRegistered],
		domain.SubjectTypeAuthority, "auth-1", "reopening")
	require.NoError(t, err)
	assert.Equal(t, f.statusIDs[domain.StatusNameRegistered], updated.CurrentStatusID)
}

func TestChangeStatusUnknownStatus(t *testing.T) {
	f := newLifecycleFixture(t)
	complaint := f.createComplaint(t, "user-1")

	_, err := f.svc.ChangeStatus(context.Background(), complaint.ID, "missing",
		domain.SubjectTypeAuthority, "auth-1", "")
	assert.Equal(t, "NOT_FOUND", domainErrCode(t, err))
}

func TestChangeStatusSurfacesWriteConflict(t *testing.T) {
	f := newLifecycleFixture(t)
	complaint := f.createComplaint(t, "user-1")
	f.tx.err = apperrors.NewWriteConflict(errors.New("could not serialize access"))

	_, err := f.svc.ChangeStatus(context.Background(), complaint.ID, f.statusIDs["In Review"],
		domain.SubjectTypeAuthority, "auth-1", "")
	assert.Equal(t, "WRITE_CONFLICT", domainErrCode(t, err))
}

func TestDeleteCascadesAndReturnsStorageKeys(t *testing.T) {
	f := newLifecycleFixture(t)
	complaint := f.createComplaint(t, "user-1")

	_, err := f.evidence.AttachMany(context.Background(), []*domain.EvidencePhoto{
		{ComplaintID: complaint.ID, StorageKey: "uploads/a.jpg", FileName: "a.jpg"},
		{ComplaintID: complaint.ID, StorageKey: "uploads/b.jpg", FileName: "b.jpg"},
	})
	require.NoError(t, err)

	keys, err := f.svc.Delete(context.Background(), complaint.ID, domain.SubjectTypeCitizen, "user-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"uploads/a.jpg", "uploads/b.jpg"}, keys)

	assert.Empty(t, f.store.complaints)
	assert.Empty(t, f.store.history)
	assert.Empty(t, f.store.evidence)
}

func TestDeleteRefusedAfterLifecycleAdvanced(t *testing.T) {
	f := newLifecycleFixture(t)
	complaint := f.createComplaint(t, "user-1")

	_, err := f.svc.ChangeStatus(context.Background(), complaint.ID, f.statusIDs["In Review"],
		domain.SubjectTypeAuthority, "auth-1", "")
	require.NoError(t, err)

	_, err = f.svc.Delete(context.Background(), complaint.ID, domain.SubjectTypeCitizen, "user-1")
	assert.Equal(t, "CONFLICT", domainErrCode(t, err))

	// nothing was removed
	assert.Len(t, f.store.complaints, 1)
	assert.Len(t, f.store.history, 2)
}

func TestDeleteAsReporterEnforcesOwnership(t *testing.T) {
	f := newLifecycleFixture(t)
	complaint := f.createComplaint(t, "user-1")

	_, err := f.svc.DeleteAsReporter(context.Background(), "user-2", complaint.ID)
	assert.Equal(t, "FORBIDDEN", domainErrCode(t, err))
	assert.Len(t, f.store.complaints, 1)
}

func TestUpdateDetailsOnlyWhileRegistered(t *testing.T) {
	f := newLifecycleFixture(t)
	complaint := f.createComplaint(t, "user-1")

	newTitle := "Two broken streetlights"
	updated, err := f.svc.UpdateDetails(context.Background(), "user-1", complaint.ID, service.ComplaintUpdateInput{
		Title: &newTitle,
	})
	require.NoError(t, err)
	assert.Equal(t, newTitle, updated.Title)

	_, err = f.svc.ChangeStatus(context.Background(), complaint.ID, f.statusIDs["In Review"],
		domain.SubjectTypeAuthority, "auth-1", "")
	require.NoError(t, err)

	_, err = f.svc.UpdateDetails(context.Background(), "user-1", complaint.ID, service.ComplaintUpdateInput{
		Title: &newTitle,
	})
	assert.Equal(t, "CONFLICT", domainErrCode(t, err))
}

func TestGetDetailForReporterEnforcesOwnership(t *testing.T) {
	f := newLifecycleFixture(t)
	complaint := f.createComplaint(t, "user-1")

	_, _, _, err := f.svc.GetDetailForReporter(context.Background(), "user-2", complaint.ID)
	assert.Equal(t, "FORBIDDEN", domainErrCode(t, err))

	got, history, _, err := f.svc.GetDetailForReporter(context.Background(), "user-1", complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, complaint.ID, got.ID)
	assert.Len(t, history, 1)
}

func TestLifecycleLedgerChainStaysIntact(t *testing.T) {
	f := newLifecycleFixture(t)
	complaint := f.createComplaint(t, "user-1")

	steps := []string{"In Review", "Assigned", "In Progress", "Resolved", "Closed"}
	for _, name := range steps {
		_, err := f.svc.ChangeStatus(context.Background(), complaint.ID, f.statusIDs[name],
			domain.SubjectTypeAuthority, "auth-1", "advance to "+name)
		require.NoError(t, err)
	}

	history, err := f.svc.ListHistory(context.Background(), complaint.ID)
	require.NoError(t, err)
	require.Len(t, history, len(steps)+1)

	assert.Nil(t, history[0].PreviousStatusID)
	for i := 1; i < len(history); i++ {
		require.NotNil(t, history[i].PreviousStatusID)
		assert.Equal(t, history[i-1].NewStatusID, *history[i].PreviousStatusID,
			"entry %d must chain off the previous entry", i)
	}
	assert.Equal(t, f.statusIDs["Closed"], history[len(history)-1].NewStatusID)

	stored, err := f.complaints.GetByID(context.Background(), complaint.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.CurrentStatusID, history[len(history)-1].NewStatusID)
}
