package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vpierre44/formation-api/internal/api/handler/v1/request"
	"github.com/vpierre44/formation-api/internal/api/handler/v1/response"
	"github.com/vpierre44/formation-api/internal/domain"
	"github.com/vpierre44/formation-api/internal/planning"
	"github.com/vpierre44/formation-api/internal/service"
)

type BookingService interface {
	BookSession(ctx context.Context, slot domain.Slot, dates []time.Time, sessionNumber int, projetID, logicielID uint) (domain.BookingResult, error)
	ModifySession(ctx context.Context, slot domain.Slot, dates []time.Time, sessionNumber int, projetID, logicielID uint) (domain.BookingResult, error)
	BookAppointment(ctx context.Context, slot domain.Slot, date time.Time, taskID, projetID uint) (domain.BookingResult, error)
	ModifyAppointment(ctx context.Context, eventID uint, slot domain.Slot, date time.Time, taskID, projetID uint) (domain.BookingResult, error)
	DeleteAppointment(ctx context.Context, eventID uint) bool
	GetExistingAppointment(ctx context.Context, taskID, projetID uint) (domain.Event, error)
	SyncProjetStagiaires(ctx context.Context, projetID uint)
	RebuildProjetStagiaires(ctx context.Context, projetID uint)
}

// BookingHandler re-resolves the requested creneau against current
// availability before every booking, so a stale client can never force a
// double booking through the API.
type BookingHandler struct {
	svc         BookingService
	planningSvc PlanningService
	uSvc        UserService
	loc         *time.Location
}

func NewBookingHandler(svc BookingService, planningSvc PlanningService, uSvc UserService, loc *time.Location) *BookingHandler {
	return &BookingHandler{
		svc:         svc,
		planningSvc: planningSvc,
		uSvc:        uSvc,
		loc:         loc,
	}
}

var errSlotTaken = errors.New("no formateur is free for the requested creneau")

// resolveSessionSlot rebuilds the whole-day session slot for the window and
// keeps only the formateurs free on every date. For a one-day session the
// availability answer is per-creneau, so a formateur must be free on all of
// them to carry the day.
func (h *BookingHandler) resolveSessionSlot(ctx context.Context, logicielID uint, window []time.Time, duration int) (domain.Slot, error) {
	slots, err := h.planningSvc.GetAvailableSlotsForSession(ctx, logicielID, window, duration)
	if err != nil {
		return domain.Slot{}, err
	}

	if duration > 1 {
		if len(slots) == 0 {
			return domain.Slot{}, errSlotTaken
		}
		return slots[0], nil
	}

	seen := make(map[uint]int)
	var order []domain.Formateur
	for _, slot := range slots {
		for _, f := range slot.Formateurs {
			if seen[f.ID] == 0 {
				order = append(order, f)
			}
			seen[f.ID]++
		}
	}

	var free []domain.Formateur
	for _, f := range order {
		if seen[f.ID] == len(planning.DailySlots()) {
			free = append(free, f)
		}
	}
	if len(free) == 0 {
		return domain.Slot{}, errSlotTaken
	}

	sessionSlot := planning.SessionSlots(duration)[0]
	sessionSlot.Formateurs = free
	sessionSlot.Count = len(free)

	return sessionSlot, nil
}

// resolveAppointmentSlot matches the requested creneau among the free ones
// of the day.
func (h *BookingHandler) resolveAppointmentSlot(ctx context.Context, logicielID uint, date time.Time, startTime, endTime string) (domain.Slot, error) {
	slots, err := h.planningSvc.GetAvailableSlots(ctx, logicielID, date)
	if err != nil {
		return domain.Slot{}, err
	}

	for _, slot := range slots {
		if slot.StartTime == startTime && slot.EndTime == endTime {
			return slot, nil
		}
	}

	return domain.Slot{}, errSlotTaken
}

func renderBookingErr(ctx *gin.Context, operation string, err error) {
	switch {
	case errors.Is(err, service.ErrProjetNotFound):
		response.RenderErr(ctx, response.ErrNotFound("projet", "ID", ctx.Param("projetID")))
	case errors.Is(err, service.ErrSessionNotFound):
		response.RenderErr(ctx, response.ErrNotFound("session", "projetID", ctx.Param("projetID")))
	case errors.Is(err, service.ErrEventNotFound):
		response.RenderErr(ctx, response.ErrNotFound("event", "ID", ctx.Param("eventID")))
	case errors.Is(err, service.ErrInvalidDates), errors.Is(err, service.ErrNoFormateur):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	case errors.Is(err, errSlotTaken):
		response.RenderErr(ctx, response.ErrConflict(err))
	default:
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("%v -> %w", operation, err)))
	}
}

// HandleBookSession godoc
// @Summary      Book a training session
// @Description  Creates one whole-day event per business day of the window, assigned to the first free formateur.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        request  body      request.BookSessionRequest true "request body"
// @Success      201      {object}  domain.BookingResult
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /bookings/sessions [post]
// @Security BearerAuth
func (h *BookingHandler) HandleBookSession(ctx *gin.Context) {
	if _, respErr := getUserFromContext(ctx, h.uSvc); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.BookSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.bookSession(ctx.Request.Context(), req, false)
	if err != nil {
		renderBookingErr(ctx, "v1.HandleBookSession", err)
		return
	}

	ctx.JSON(http.StatusCreated, result)
}

// HandleModifySession godoc
// @Summary      Replace the session of a projet
// @Description  Deletes every session event of the projet and books the new window through the same path as a fresh booking.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        projetID  path      int  true  "projet ID"
// @Param        request   body      request.BookSessionRequest true "request body"
// @Success      200       {object}  domain.BookingResult
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      409       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /bookings/sessions/{projetID} [put]
// @Security BearerAuth
func (h *BookingHandler) HandleModifySession(ctx *gin.Context) {
	projetID, err := parseUintParam(ctx, "projetID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.BookSessionRequest
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	req.ProjetID = projetID

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.bookSession(ctx.Request.Context(), req, true)
	if err != nil {
		renderBookingErr(ctx, "v1.HandleModifySession", err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

func (h *BookingHandler) bookSession(ctx context.Context, req request.BookSessionRequest, modify bool) (domain.BookingResult, error) {
	startDate, err := planning.ParseDate(req.StartDate, h.loc)
	if err != nil {
		return domain.BookingResult{}, service.ErrInvalidDates
	}

	window, ok := planning.BusinessDayWindow(startDate, req.Duration)
	if !ok {
		return domain.BookingResult{}, service.ErrInvalidDates
	}

	slot, err := h.resolveSessionSlot(ctx, req.LogicielID, window, req.Duration)
	if err != nil {
		return domain.BookingResult{}, err
	}

	if modify {
		return h.svc.ModifySession(ctx, slot, window, req.SessionNumber, req.ProjetID, req.LogicielID)
	}

	return h.svc.BookSession(ctx, slot, window, req.SessionNumber, req.ProjetID, req.LogicielID)
}

// HandleBookAppointment godoc
// @Summary      Book a qualification rendez-vous
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        request  body      request.BookAppointmentRequest true "request body"
// @Success      201      {object}  domain.BookingResult
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /bookings/appointments [post]
// @Security BearerAuth
func (h *BookingHandler) HandleBookAppointment(ctx *gin.Context) {
	if _, respErr := getUserFromContext(ctx, h.uSvc); respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.BookAppointmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.bookAppointment(ctx.Request.Context(), req, 0)
	if err != nil {
		renderBookingErr(ctx, "v1.HandleBookAppointment", err)
		return
	}

	ctx.JSON(http.StatusCreated, result)
}

// HandleModifyAppointment godoc
// @Summary      Move an existing rendez-vous
// @Description  Deletes the event and books the new creneau; the rendez-vous is never patched in place.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        eventID  path      int  true  "event ID"
// @Param        request  body      request.BookAppointmentRequest true "request body"
// @Success      200      {object}  domain.BookingResult
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Failure      500      {object}  response.Err
// @Router       /bookings/appointments/{eventID} [put]
// @Security BearerAuth
func (h *BookingHandler) HandleModifyAppointment(ctx *gin.Context) {
	eventID, err := parseUintParam(ctx, "eventID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.BookAppointmentRequest
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	result, err := h.bookAppointment(ctx.Request.Context(), req, eventID)
	if err != nil {
		renderBookingErr(ctx, "v1.HandleModifyAppointment", err)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

func (h *BookingHandler) bookAppointment(ctx context.Context, req request.BookAppointmentRequest, eventID uint) (domain.BookingResult, error) {
	date, err := planning.ParseDate(req.Date, h.loc)
	if err != nil {
		return domain.BookingResult{}, service.ErrInvalidDates
	}

	slot, err := h.resolveAppointmentSlot(ctx, req.LogicielID, date, req.StartTime, req.EndTime)
	if err != nil {
		return domain.BookingResult{}, err
	}

	if eventID != 0 {
		return h.svc.ModifyAppointment(ctx, eventID, slot, date, req.TaskID, req.ProjetID)
	}

	return h.svc.BookAppointment(ctx, slot, date, req.TaskID, req.ProjetID)
}

// HandleDeleteAppointment godoc
// @Summary      Delete a rendez-vous
// @Description  Reports whether the deletion happened; a missing event answers deleted=false, not an error.
// @Tags         bookings
// @Produce      json
// @Param        eventID  path      int  true  "event ID"
// @Success      200      {object}  map[string]bool
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Router       /bookings/appointments/{eventID} [delete]
// @Security BearerAuth
func (h *BookingHandler) HandleDeleteAppointment(ctx *gin.Context) {
	eventID, err := parseUintParam(ctx, "eventID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	deleted := h.svc.DeleteAppointment(ctx.Request.Context(), eventID)

	ctx.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// HandleGetExistingAppointment godoc
// @Summary      Find the rendez-vous linked to a task within a projet
// @Tags         bookings
// @Produce      json
// @Param        taskID    query     int  true  "task ID"
// @Param        projetID  query     int  true  "projet ID"
// @Success      200       {object}  domain.Event
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Failure      404       {object}  response.Err
// @Failure      500       {object}  response.Err
// @Router       /bookings/appointments [get]
// @Security BearerAuth
func (h *BookingHandler) HandleGetExistingAppointment(ctx *gin.Context) {
	taskID, err := strconv.ParseUint(ctx.Query("taskID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid taskID %q", ctx.Query("taskID"))))
		return
	}

	projetID, err := strconv.ParseUint(ctx.Query("projetID"), 10, 64)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid projetID %q", ctx.Query("projetID"))))
		return
	}

	event, err := h.svc.GetExistingAppointment(ctx.Request.Context(), uint(taskID), uint(projetID))
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("appointment", "taskID", taskID))
			return
		}

		err = fmt.Errorf("v1.HandleGetExistingAppointment -> h.svc.GetExistingAppointment -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleSyncStagiaires godoc
// @Summary      Push the projet roster onto its events
// @Description  Best-effort and idempotent; always answers accepted.
// @Tags         bookings
// @Produce      json
// @Param        projetID  path      int  true  "projet ID"
// @Success      202       {object}  map[string]string
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Router       /bookings/projets/{projetID}/stagiaires/sync [post]
// @Security BearerAuth
func (h *BookingHandler) HandleSyncStagiaires(ctx *gin.Context) {
	projetID, err := parseUintParam(ctx, "projetID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	h.svc.SyncProjetStagiaires(ctx.Request.Context(), projetID)

	ctx.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// HandleRebuildStagiaires godoc
// @Summary      Rebuild the projet roster from its events
// @Description  Best-effort and idempotent; always answers accepted.
// @Tags         bookings
// @Produce      json
// @Param        projetID  path      int  true  "projet ID"
// @Success      202       {object}  map[string]string
// @Failure      400       {object}  response.Err
// @Failure      401       {object}  response.Err
// @Router       /bookings/projets/{projetID}/stagiaires/rebuild [post]
// @Security BearerAuth
func (h *BookingHandler) HandleRebuildStagiaires(ctx *gin.Context) {
	projetID, err := parseUintParam(ctx, "projetID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	h.svc.RebuildProjetStagiaires(ctx.Request.Context(), projetID)

	ctx.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
