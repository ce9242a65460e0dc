package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vpierre44/formation-api/internal/api/handler/v1/response"
	"github.com/vpierre44/formation-api/internal/domain"
	"github.com/vpierre44/formation-api/internal/planning"
)

type PlanningService interface {
	GetAvailableSlots(ctx context.Context, logicielID uint, date time.Time) ([]domain.Slot, error)
	GetAvailableSlotsForSession(ctx context.Context, logicielID uint, dates []time.Time, duration int) ([]domain.Slot, error)
	GetMonthAvailability(ctx context.Context, logicielID uint, year int, month time.Month, duration int, formateurID uint) domain.AvailabilityIndex
	ClearCache()
}

type PlanningHandler struct {
	svc PlanningService
	loc *time.Location
}

func NewPlanningHandler(svc PlanningService, loc *time.Location) *PlanningHandler {
	return &PlanningHandler{
		svc: svc,
		loc: loc,
	}
}

// HandleGetDailySlots godoc
// @Summary      List free half-hour creneaux of one day
// @Description  Resolves the daily creneaux of a logiciel against its trainer pool. Query failures degrade to an empty list.
// @Tags         planning
// @Produce      json
// @Param        logicielID  path      int     true  "logiciel ID"
// @Param        date        query     string  true  "date (2006-01-02)"
// @Success      200         {array}   domain.Slot
// @Failure      400         {object}  response.Err
// @Failure      401         {object}  response.Err
// @Router       /planning/logiciels/{logicielID}/slots [get]
// @Security BearerAuth
func (h *PlanningHandler) HandleGetDailySlots(ctx *gin.Context) {
	logicielID, err := parseUintParam(ctx, "logicielID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	date, err := planning.ParseDate(ctx.Query("date"), h.loc)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	slots, err := h.svc.GetAvailableSlots(ctx.Request.Context(), logicielID, date)
	if err != nil {
		// Availability reads degrade; an empty calendar beats a dead one.
		zap.L().Error("daily slots query failed",
			zap.Uint("logiciel_id", logicielID),
			zap.String("date", ctx.Query("date")),
			zap.Error(err))
		ctx.JSON(http.StatusOK, []domain.Slot{})
		return
	}

	ctx.JSON(http.StatusOK, slots)
}

// HandleGetSessionSlots godoc
// @Summary      List whole-day creneaux over a window of dates
// @Description  The dates must form a window of exactly duration consecutive business days; anything else answers an empty list.
// @Tags         planning
// @Produce      json
// @Param        logicielID  path      int     true  "logiciel ID"
// @Param        dates       query     string  true  "comma-separated dates (2006-01-02)"
// @Param        duration    query     int     true  "session length in days"
// @Success      200         {array}   domain.Slot
// @Failure      400         {object}  response.Err
// @Failure      401         {object}  response.Err
// @Router       /planning/logiciels/{logicielID}/session-slots [get]
// @Security BearerAuth
func (h *PlanningHandler) HandleGetSessionSlots(ctx *gin.Context) {
	logicielID, err := parseUintParam(ctx, "logicielID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	duration, err := strconv.Atoi(ctx.Query("duration"))
	if err != nil || duration < 1 {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid duration %q", ctx.Query("duration"))))
		return
	}

	dates, err := h.parseDates(ctx.Query("dates"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	slots, err := h.svc.GetAvailableSlotsForSession(ctx.Request.Context(), logicielID, dates, duration)
	if err != nil {
		zap.L().Error("session slots query failed",
			zap.Uint("logiciel_id", logicielID),
			zap.Int("duration", duration),
			zap.Error(err))
		ctx.JSON(http.StatusOK, []domain.Slot{})
		return
	}

	ctx.JSON(http.StatusOK, slots)
}

// HandleGetMonthAvailability godoc
// @Summary      Month-wide availability index
// @Description  Cached per (logiciel, year, month, duration, formateur) for a short TTL. Failures answer the empty index with the error recorded.
// @Tags         planning
// @Produce      json
// @Param        logicielID   path      int  true   "logiciel ID"
// @Param        year         query     int  true   "year"
// @Param        month        query     int  true   "month (1-12)"
// @Param        duration     query     int  false  "session length in days (default 1)"
// @Param        formateurID  query     int  false  "restrict to one formateur"
// @Success      200          {object}  domain.AvailabilityIndex
// @Failure      400          {object}  response.Err
// @Failure      401          {object}  response.Err
// @Router       /planning/logiciels/{logicielID}/month [get]
// @Security BearerAuth
func (h *PlanningHandler) HandleGetMonthAvailability(ctx *gin.Context) {
	logicielID, err := parseUintParam(ctx, "logicielID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	year, err := strconv.Atoi(ctx.Query("year"))
	if err != nil || year < 1 {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid year %q", ctx.Query("year"))))
		return
	}

	month, err := strconv.Atoi(ctx.Query("month"))
	if err != nil || month < 1 || month > 12 {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid month %q", ctx.Query("month"))))
		return
	}

	duration := 1
	if raw := ctx.Query("duration"); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil || duration < 1 {
			response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid duration %q", raw)))
			return
		}
	}

	var formateurID uint
	if raw := ctx.Query("formateurID"); raw != "" {
		parsed, parseErr := strconv.ParseUint(raw, 10, 64)
		if parseErr != nil {
			response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid formateurID %q", raw)))
			return
		}
		formateurID = uint(parsed)
	}

	index := h.svc.GetMonthAvailability(ctx.Request.Context(), logicielID, year, time.Month(month), duration, formateurID)

	ctx.JSON(http.StatusOK, index)
}

// HandleClearCache godoc
// @Summary      Clear the availability cache
// @Tags         planning
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  response.Err
// @Router       /planning/cache [delete]
// @Security BearerAuth
func (h *PlanningHandler) HandleClearCache(ctx *gin.Context) {
	h.svc.ClearCache()

	ctx.JSON(http.StatusOK, gin.H{"status": "cache cleared"})
}

func (h *PlanningHandler) parseDates(raw string) ([]time.Time, error) {
	if raw == "" {
		return nil, errors.New("dates is required")
	}

	parts := strings.Split(raw, ",")
	dates := make([]time.Time, 0, len(parts))
	for _, part := range parts {
		date, err := planning.ParseDate(strings.TrimSpace(part), h.loc)
		if err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}

	return dates, nil
}
