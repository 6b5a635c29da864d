package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-service/internal/api/dto"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	apperrors "github.com/spec-kit/complaint-service/pkg/util"
)

// AuthorityComplaintsHandler manages authority-side complaint processing.
type AuthorityComplaintsHandler struct {
	lifecycle *service.LifecycleService
}

// NewAuthorityComplaintsHandler constructs handler.
func NewAuthorityComplaintsHandler(lifecycle *service.LifecycleService) *AuthorityComplaintsHandler {
	return &AuthorityComplaintsHandler{lifecycle: lifecycle}
}

// List GET /admin/complaints.
func (h *AuthorityComplaintsHandler) List(c *fiber.Ctx) error {
	filter := parseComplaintFilter(c)
	complaints, err := h.lifecycle.ListWithFilter(c.Context(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ComplaintSummary, 0, len(complaints))
	for i := range complaints {
		items = append(items, complaintSummary(&complaints[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /admin/complaints/:id.
func (h *AuthorityComplaintsHandler) Get(c *fiber.Ctx) error {
	complaint, history, evidence, err := h.lifecycle.GetDetail(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	resp := complaintDetail(complaint, history, evidence)
	// authorities always see the reporter, anonymity only hides it from public views
	resp.ReporterID = complaint.ReporterID
	return c.JSON(fiber.Map{"data": resp})
}

// ChangeStatus POST /admin/complaints/:id/status.
func (h *AuthorityComplaintsHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Authority == nil {
		return apperrors.NewUnauthorized("authority account required")
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.NewStatusID == "" {
		return apperrors.NewValidationError("new_status_id required", nil)
	}
	complaint, err := h.lifecycle.ChangeStatus(c.Context(), c.Params("id"), req.NewStatusID,
		domain.SubjectTypeAuthority, principal.Authority.ID, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintSummary(complaint)})
}

// Delete DELETE /admin/complaints/:id.
func (h *AuthorityComplaintsHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Authority == nil {
		return apperrors.NewUnauthorized("authority account required")
	}
	orphanedKeys, err := h.lifecycle.Delete(c.Context(), c.Params("id"), domain.SubjectTypeAuthority, principal.Authority.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true, "orphaned_storage_keys": orphanedKeys}})
}

// ListHistory GET /admin/complaints/:id/history.
func (h *AuthorityComplaintsHandler) ListHistory(c *fiber.Ctx) error {
	history, err := h.lifecycle.ListHistory(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(history)})
}

func parseComplaintFilter(c *fiber.Ctx) repository.ComplaintFilter {
	filter := repository.ComplaintFilter{}
	if reporter := c.Query("reporter_id"); reporter != "" {
		filter.ReporterID = &reporter
	}
	if category := c.Query("category_id"); category != "" {
		filter.CategoryID = &category
	}
	if statusStr := c.Query("status_id"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				filter.StatusIDs = append(filter.StatusIDs, trimmed)
			}
		}
	}
	if search := c.Query("q"); search != "" {
		filter.SearchTerm = &search
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}
