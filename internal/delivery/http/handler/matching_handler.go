package handler

import (
	"errors"
	"strings"

	"talent-match/internal/delivery/http/dto"
	"talent-match/internal/delivery/http/middleware"
	"talent-match/internal/pkg/response"
	"talent-match/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type MatchingHandler struct {
	uc usecase.MatchingUsecase
}

func NewMatchingHandler(uc usecase.MatchingUsecase) *MatchingHandler {
	return &MatchingHandler{uc: uc}
}

func (h *MatchingHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	grp := r.Group("/matching")
	grp.Post("/generate", h.Generate)
	grp.Get("/shortlist/:job_id", h.GetShortlist)
	grp.Post("/hire", h.Hire)
	grp.Post("/status", h.SetStatus)
	grp.Get("/jobs/:job_id/candidates/:candidate_id", h.Preview)
}

func (h *MatchingHandler) Generate(c fiber.Ctx) error {
	var req dto.GenerateShortlistRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	jobID, err := parseID(req.JobID, "jobId")
	if err != nil {
		return err
	}

	sl, err := h.uc.RegenerateShortlist(c.Context(), jobID)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, sl)
}

func (h *MatchingHandler) GetShortlist(c fiber.Ctx) error {
	jobID, err := parseID(c.Params("job_id"), "job_id")
	if err != nil {
		return err
	}

	sl, err := h.uc.GetShortlist(c.Context(), jobID)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, sl)
}

func (h *MatchingHandler) Hire(c fiber.Ctx) error {
	var req dto.HireRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	jobID, err := parseID(req.JobID, "jobId")
	if err != nil {
		return err
	}
	candidateID, err := parseID(req.CandidateID, "candidateId")
	if err != nil {
		return err
	}

	entry, err := h.uc.Hire(c.Context(), jobID, candidateID, req.Notes)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, entry)
}

func (h *MatchingHandler) SetStatus(c fiber.Ctx) error {
	var req dto.SetStatusRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	}
	jobID, err := parseID(req.JobID, "jobId")
	if err != nil {
		return err
	}
	candidateID, err := parseID(req.CandidateID, "candidateId")
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Status) == "" {
		return middleware.NewAppError(fiber.StatusBadRequest, "status is required", nil, nil)
	}

	entry, err := h.uc.SetStatus(c.Context(), jobID, candidateID, req.Status, req.Notes)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, entry)
}

func (h *MatchingHandler) Preview(c fiber.Ctx) error {
	jobID, err := parseID(c.Params("job_id"), "job_id")
	if err != nil {
		return err
	}
	candidateID, err := parseID(c.Params("candidate_id"), "candidate_id")
	if err != nil {
		return err
	}

	res, err := h.uc.PreviewMatch(c.Context(), jobID, candidateID)
	if err != nil {
		return mapMatchingUsecaseError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, res)
}

func parseID(raw, field string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, middleware.NewAppError(fiber.StatusBadRequest, field+" is required", nil, nil)
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, middleware.NewAppError(fiber.StatusBadRequest, "invalid "+field, nil, err)
	}
	return id, nil
}

func mapMatchingUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrJobNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Job not found", nil, err)
	case errors.Is(err, usecase.ErrCandidateNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, "Candidate not found", nil, err)
	case errors.Is(err, usecase.ErrInvalidStatus):
		return middleware.NewAppError(fiber.StatusBadRequest, "Invalid status", nil, err)
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
	case errors.Is(err, usecase.ErrConflict):
		return middleware.NewAppError(fiber.StatusConflict, "Shortlist was modified concurrently, retry", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
