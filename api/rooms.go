package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/hotelbooking/internal/access"
	"github.com/Domenick1991/hotelbooking/internal/domain"
	"github.com/Domenick1991/hotelbooking/internal/service/booking"
	"github.com/Domenick1991/hotelbooking/internal/service/rooms"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RoomHandler struct {
	service  rooms.RoomUseCase
	bookings booking.BookingUseCase
	logger   *zap.Logger
}

type roomRequest struct {
	Number   int             `json:"number" binding:"required,gt=0,lte=2147483647"`
	Category domain.Category `json:"category" binding:"required"`
}

type availabilityResponse struct {
	Room      int         `json:"room"`
	CheckIn   domain.Date `json:"check_in"`
	CheckOut  domain.Date `json:"check_out"`
	Available bool        `json:"available"`
}

func NewRoomHandler(service rooms.RoomUseCase, bookings booking.BookingUseCase, logger *zap.Logger) *RoomHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomHandler{service: service, bookings: bookings, logger: logger}
}

func (h *RoomHandler) Register(router *gin.RouterGroup) {
	router.GET("", RequirePermission(access.OpRead, access.ResourceRoom), h.list)
	router.POST("", RequirePermission(access.OpCreate, access.ResourceRoom), h.create)
	router.GET("/:number", RequirePermission(access.OpRead, access.ResourceRoom), h.get)
	router.PUT("/:number", RequirePermission(access.OpUpdate, access.ResourceRoom), h.update)
	router.DELETE("/:number", RequirePermission(access.OpDelete, access.ResourceRoom), h.delete)
	router.GET("/:number/availability", RequirePermission(access.OpRead, access.ResourceRoom), h.availability)
}

// RegisterPricing exposes the nightly rate per category.
func (h *RoomHandler) RegisterPricing(router *gin.RouterGroup) {
	router.GET("/pricing", h.pricing)
}

func (h *RoomHandler) list(c *gin.Context) {
	list, err := h.service.ListRooms(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *RoomHandler) get(c *gin.Context) {
	number, ok := roomNumberParam(c)
	if !ok {
		return
	}
	room, err := h.service.GetRoom(c.Request.Context(), number)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) create(c *gin.Context) {
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	room, err := h.service.CreateRoom(c.Request.Context(), domain.Room{Number: req.Number, Category: req.Category})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

func (h *RoomHandler) update(c *gin.Context) {
	number, ok := roomNumberParam(c)
	if !ok {
		return
	}
	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	room, err := h.service.UpdateRoom(c.Request.Context(), number, domain.Room{Number: req.Number, Category: req.Category})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) delete(c *gin.Context) {
	number, ok := roomNumberParam(c)
	if !ok {
		return
	}
	if err := h.service.DeleteRoom(c.Request.Context(), number); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RoomHandler) availability(c *gin.Context) {
	number, ok := roomNumberParam(c)
	if !ok {
		return
	}
	checkIn, err := domain.ParseDate(c.Query("check_in"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_in: " + err.Error()})
		return
	}
	checkOut, err := domain.ParseDate(c.Query("check_out"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "check_out: " + err.Error()})
		return
	}

	var exclude *int64
	if raw := c.Query("exclude"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid exclude"})
			return
		}
		exclude = &id
	}

	free, err := h.bookings.IsRoomAvailable(c.Request.Context(), number, checkIn, checkOut, exclude)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, availabilityResponse{Room: number, CheckIn: checkIn, CheckOut: checkOut, Available: free})
}

func (h *RoomHandler) pricing(c *gin.Context) {
	rates := h.service.Rates()
	out := make(map[string]int64, len(rates))
	for category, rate := range rates {
		out[category.String()] = rate
	}
	c.JSON(http.StatusOK, out)
}

func roomNumberParam(c *gin.Context) (int, bool) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || !domain.ValidRoomNumber(number) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room number"})
		return 0, false
	}
	return number, true
}
