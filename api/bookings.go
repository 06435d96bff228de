package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Domenick1991/hotelbooking/internal/access"
	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/Domenick1991/hotelbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	service booking.BookingUseCase
	logger  *zap.Logger
}

type bookingRequest struct {
	Surname  string      `json:"surname" binding:"required"`
	Rooms    []int       `json:"rooms" binding:"required,min=1,dive,gt=0,lte=2147483647"`
	CheckIn  domain.Date `json:"check_in"`
	CheckOut domain.Date `json:"check_out"`
}

func NewBookingHandler(service booking.BookingUseCase, logger *zap.Logger) *BookingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingHandler{service: service, logger: logger}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("", RequirePermission(access.OpRead, access.ResourceBooking), h.list)
	router.POST("", RequirePermission(access.OpCreate, access.ResourceBooking), h.create)
	router.GET("/:id", RequirePermission(access.OpRead, access.ResourceBooking), h.get)
	router.PUT("/:id", RequirePermission(access.OpUpdate, access.ResourceBooking), h.update)
	router.DELETE("/:id", RequirePermission(access.OpDelete, access.ResourceBooking), h.delete)
}

func (h *BookingHandler) RegisterSearch(router *gin.RouterGroup) {
	router.GET("/search", RequirePermission(access.OpRead, access.ResourceSearch), h.search)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	view, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		Owner:    ActorFrom(c).UserID,
		Surname:  req.Surname,
		Rooms:    req.Rooms,
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *BookingHandler) update(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}

	view, err := h.service.UpdateBooking(c.Request.Context(), id, booking.UpdateBookingInput{
		Surname:  req.Surname,
		Rooms:    req.Rooms,
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	view, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *BookingHandler) list(c *gin.Context) {
	views, err := h.service.ListBookings(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *BookingHandler) delete(c *gin.Context) {
	id, ok := bookingIDParam(c)
	if !ok {
		return
	}
	if err := h.service.DeleteBooking(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BookingHandler) search(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	views, err := h.service.SearchBookings(c.Request.Context(), filter)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// parseFilter reads surname, rooms (comma separated), check_in, check_out
// and created from the query string.
func parseFilter(c *gin.Context) (domain.BookingFilter, error) {
	filter := domain.BookingFilter{Surname: strings.TrimSpace(c.Query("surname"))}

	if raw := c.Query("rooms"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || !domain.ValidRoomNumber(n) {
				return filter, domain.Malformed("rooms must be a comma separated list of room numbers")
			}
			filter.Rooms = append(filter.Rooms, n)
		}
	}

	dates := []struct {
		name string
		dst  **domain.Date
	}{
		{"check_in", &filter.CheckIn},
		{"check_out", &filter.CheckOut},
		{"created", &filter.Created},
	}
	for _, d := range dates {
		raw := c.Query(d.name)
		if raw == "" {
			continue
		}
		parsed, err := domain.ParseDate(raw)
		if err != nil {
			return filter, domain.Malformed("%s: expected YYYY-MM-DD", d.name)
		}
		*d.dst = &parsed
	}
	return filter, nil
}

func bookingIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
