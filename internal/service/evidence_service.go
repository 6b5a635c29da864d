package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/repository"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// EvidenceInput defines uploaded file metadata.
type EvidenceInput struct {
	StorageKey string
	FileName   string
}

// EvidenceService records evidence photo pointers for complaints. The files
// themselves are persisted by the upload collaborator before this service is
// called; only index rows are managed here.
type EvidenceService struct {
	complaints repository.ComplaintRepository
	evidence   repository.EvidenceRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewEvidenceService constructs the service.
func NewEvidenceService(complaints repository.ComplaintRepository, evidence repository.EvidenceRepository, dispatcher events.Dispatcher, logger *zap.Logger) *EvidenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvidenceService{complaints: complaints, evidence: evidence, dispatcher: dispatcher, logger: logger}
}

// AttachMany records evidence pointers for an existing complaint and returns
// the inserted count. Only the reporter may attach evidence.
func (s *EvidenceService) AttachMany(ctx context.Context, reporterID, complaintID string, inputs []EvidenceInput) (int, error) {
	if len(inputs) == 0 {
		return 0, apperrors.NewValidationError("no evidence provided", nil)
	}
	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		return 0, notFoundOr(err, "complaint")
	}
	if complaint.ReporterID != reporterID {
		return 0, apperrors.NewForbidden("not the reporter of this complaint")
	}

	photos := make([]*domain.EvidencePhoto, 0, len(inputs))
	fileNames := make([]string, 0, len(inputs))
	for _, input := range inputs {
		if input.StorageKey == "" {
			return 0, apperrors.NewValidationError("storage_key required", nil)
		}
		photos = append(photos, &domain.EvidencePhoto{
			ComplaintID: complaintID,
			StorageKey:  input.StorageKey,
			FileName:    input.FileName,
		})
		fileNames = append(fileNames, input.FileName)
	}

	inserted, err := s.evidence.AttachMany(ctx, photos)
	if err != nil {
		return inserted, err
	}

	if s.dispatcher != nil {
		event := events.Event{
			Type:        events.EventEvidenceAttached,
			ComplaintID: complaintID,
			Actor:       citizenActor(reporterID),
			Payload: events.EvidenceAttachedPayload{
				Count:     inserted,
				FileNames: fileNames,
			},
		}
		publishWithDefaults(ctx, s.dispatcher, event)
	}
	return inserted, nil
}

// ListForComplaint returns evidence ordered by upload time ascending.
func (s *EvidenceService) ListForComplaint(ctx context.Context, complaintID string) ([]domain.EvidencePhoto, error) {
	return s.evidence.ListByComplaint(ctx, complaintID)
}
