package handler

import (
	"errors"
	"net/http"

	"github.com/crestline-lending/income-engine/dto"
	"github.com/crestline-lending/income-engine/report"
	"github.com/crestline-lending/income-engine/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type CalculationHandler struct {
	pipeline *service.Pipeline
	store    service.Store
	log      *logrus.Logger
}

func NewCalculationHandler(pipeline *service.Pipeline, store service.Store, log *logrus.Logger) *CalculationHandler {
	return &CalculationHandler{
		pipeline: pipeline,
		store:    store,
		log:      log,
	}
}

// Qualify handles POST /api/v1/borrowers/:borrowerID/qualify
func (h *CalculationHandler) Qualify(c *gin.Context) {
	borrowerID := c.Param("borrowerID")

	var request dto.QualifyRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", "Malformed qualification request", err)
		return
	}
	if err := request.Validate(); err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	calculation, err := h.pipeline.Qualify(c.Request.Context(), borrowerID, request.Agency, request.RequestedBy)
	if err != nil {
		if errors.Is(err, dto.ErrUnknownAgency) {
			h.sendError(c, http.StatusBadRequest, "UNKNOWN_AGENCY", "Unrecognized agency", nil)
			return
		}
		h.sendError(c, http.StatusInternalServerError, "QUALIFY_FAILED", "Failed to run qualification", err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"borrower_id":    borrowerID,
		"calculation_id": calculation.ID,
		"agency":         request.Agency,
		"monthly_income": calculation.MonthlyIncome,
	}).Info("qualification completed")

	c.JSON(http.StatusOK, calculation)
}

// List handles GET /api/v1/borrowers/:borrowerID/calculations
func (h *CalculationHandler) List(c *gin.Context) {
	borrowerID := c.Param("borrowerID")

	calculations, err := h.store.ListCalculations(c.Request.Context(), borrowerID)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "LIST_FAILED", "Failed to list calculations", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"calculations": calculations})
}

// Get handles GET /api/v1/calculations/:calculationID
func (h *CalculationHandler) Get(c *gin.Context) {
	calculation, ok := h.fetch(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, calculation)
}

// Worksheet handles GET /api/v1/calculations/:calculationID/worksheet
func (h *CalculationHandler) Worksheet(c *gin.Context) {
	calculation, ok := h.fetch(c)
	if !ok {
		return
	}

	docs, err := h.store.ListDocuments(c.Request.Context(), calculation.BorrowerID)
	if err != nil {
		h.sendError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to load borrower documents", err)
		return
	}

	actingUser := c.Query("requested_by")
	if actingUser == "" {
		actingUser = calculation.RequestedBy
	}

	c.String(http.StatusOK, report.RenderWorksheet(calculation, docs, actingUser))
}

func (h *CalculationHandler) fetch(c *gin.Context) (*dto.IncomeCalculation, bool) {
	id, err := uuid.Parse(c.Param("calculationID"))
	if err != nil {
		h.sendError(c, http.StatusBadRequest, "INVALID_ID", "Calculation ID must be a UUID", err)
		return nil, false
	}

	calculation, err := h.store.GetCalculation(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, dto.ErrCalcNotFound) {
			h.sendError(c, http.StatusNotFound, "NOT_FOUND", "Calculation not found", nil)
			return nil, false
		}
		h.sendError(c, http.StatusInternalServerError, "FETCH_FAILED", "Failed to fetch calculation", err)
		return nil, false
	}

	return calculation, true
}

// sendError sends a structured error response
func (h *CalculationHandler) sendError(c *gin.Context, statusCode int, code, message string, err error) {
	if err != nil {
		h.log.WithError(err).Error(message)
	}

	c.JSON(statusCode, dto.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    statusCode,
	})
}
