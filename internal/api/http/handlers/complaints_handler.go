package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// ComplaintsHandler manages citizen-facing complaint endpoints.
type ComplaintsHandler struct {
	lifecycle *service.LifecycleService
	evidence  *service.EvidenceService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(lifecycle *service.LifecycleService, evidence *service.EvidenceService) *ComplaintsHandler {
	return &ComplaintsHandler{lifecycle: lifecycle, evidence: evidence}
}

// Create POST /complaints.
func (h *ComplaintsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.CategoryID == "" || strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("category_id, title, description required", nil)
	}

	input := service.ComplaintCreateInput{
		CategoryID:  req.CategoryID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		IsAnonymous: req.IsAnonymous,
	}
	complaint, err := h.lifecycle.Create(c.Context(), principal.User.ID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": complaintSummary(complaint)})
}

// List GET /complaints.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	complaints, err := h.lifecycle.ListForReporter(c.Context(), principal.User.ID, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.ComplaintSummary, 0, len(complaints))
	for i := range complaints {
		items = append(items, complaintSummary(&complaints[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	complaint, history, evidence, err := h.lifecycle.GetDetailForReporter(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintDetail(complaint, history, evidence)})
}

// Update PATCH /complaints/:id.
func (h *ComplaintsHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	var req dto.UpdateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.ComplaintUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
	}
	complaint, err := h.lifecycle.UpdateDetails(c.Context(), principal.User.ID, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintSummary(complaint)})
}

// Delete DELETE /complaints/:id.
func (h *ComplaintsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	orphanedKeys, err := h.lifecycle.DeleteAsReporter(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true, "orphaned_storage_keys": orphanedKeys}})
}

// AttachEvidence POST /complaints/:id/evidence.
func (h *ComplaintsHandler) AttachEvidence(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	var req dto.AttachEvidenceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	inputs := make([]service.EvidenceInput, 0, len(req.Photos))
	for _, photo := range req.Photos {
		inputs = append(inputs, service.EvidenceInput{
			StorageKey: photo.StorageKey,
			FileName:   photo.FileName,
		})
	}
	attached, err := h.evidence.AttachMany(c.Context(), principal.User.ID, c.Params("id"), inputs)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"attached": attached}})
}

// ListEvidence GET /complaints/:id/evidence.
func (h *ComplaintsHandler) ListEvidence(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("citizen account required")
	}
	if _, _, _, err := h.lifecycle.GetDetailForReporter(c.Context(), principal.User.ID, c.Params("id")); err != nil {
		return err
	}
	photos, err := h.evidence.ListForComplaint(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": evidenceResponses(photos)})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func complaintSummary(complaint *domain.Complaint) dto.ComplaintSummary {
	return dto.ComplaintSummary{
		ID:              complaint.ID,
		PublicKey:       complaint.PublicKey,
		CategoryID:      complaint.CategoryID,
		CurrentStatusID: complaint.CurrentStatusID,
		Title:           complaint.Title,
		IsAnonymous:     complaint.IsAnonymous,
		CreatedAt:       complaint.CreatedAt,
		UpdatedAt:       complaint.UpdatedAt,
	}
}

func complaintDetail(complaint *domain.Complaint, history []domain.StatusHistory, evidence []domain.EvidencePhoto) dto.ComplaintDetailResponse {
	resp := dto.ComplaintDetailResponse{
		ID:              complaint.ID,
		PublicKey:       complaint.PublicKey,
		CategoryID:      complaint.CategoryID,
		CurrentStatusID: complaint.CurrentStatusID,
		Title:           complaint.Title,
		Description:     complaint.Description,
		Latitude:        complaint.Latitude,
		Longitude:       complaint.Longitude,
		Address:         complaint.Address,
		IsAnonymous:     complaint.IsAnonymous,
		CreatedAt:       complaint.CreatedAt,
		UpdatedAt:       complaint.UpdatedAt,
		History:         historyResponses(history),
		Evidence:        evidenceResponses(evidence),
	}
	if !complaint.IsAnonymous {
		resp.ReporterID = complaint.ReporterID
	}
	return resp
}

func historyResponses(entries []domain.StatusHistory) []dto.StatusHistoryResponse {
	resp := make([]dto.StatusHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.StatusHistoryResponse{
			ID:               entry.ID,
			PreviousStatusID: entry.PreviousStatusID,
			NewStatusID:      entry.NewStatusID,
			ChangedByID:      entry.ChangedByID,
			Comment:          entry.Comment,
			CreatedAt:        entry.CreatedAt,
		})
	}
	return resp
}

func evidenceResponses(photos []domain.EvidencePhoto) []dto.EvidencePhotoResponse {
	resp := make([]dto.EvidencePhotoResponse, 0, len(photos))
	for _, photo := range photos {
		resp = append(resp, dto.EvidencePhotoResponse{
			ID:         photo.ID,
			StorageKey: photo.StorageKey,
			FileName:   photo.FileName,
			UploadedAt: photo.UploadedAt,
		})
	}
	return resp
}
