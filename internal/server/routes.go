package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/berfenger/furnace2mqtt/internal/core/domain"
	"github.com/berfenger/furnace2mqtt/pkg/furnace"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type energyRequest struct {
	Amount  float64 `json:"amount"`
	Voltage int     `json:"voltage"`
	Side    string  `json:"side"`
}

type energyResponse struct {
	Rejected   float64 `json:"rejected"`
	Overloaded bool    `json:"overloaded"`
}

type disableRequest struct {
	Disable bool `json:"disable"`
	Ticks   int  `json:"ticks"`
}

type disableResponse struct {
	Ticks int `json:"ticks"`
}

type generatorRequest struct {
	Watts float64 `json:"watts"`
}

type generatorResponse struct {
	Watts float64 `json:"watts"`
}

type furnaceStateResponse struct {
	Id string `json:"id"`
	furnace.Snapshot
}

type saveAllResponse struct {
	Saved int `json:"saved"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	api := e.Group("/api")
	api.GET("/furnaces", s.ListFurnacesHandler)
	api.POST("/furnaces/save", s.SaveAllHandler)
	api.GET("/furnaces/:id", s.GetFurnaceHandler)
	api.POST("/furnaces/:id/energy", s.ReceiveEnergyHandler)
	api.PUT("/furnaces/:id/slots/:slot", s.SetSlotHandler)
	api.DELETE("/furnaces/:id/slots/:slot", s.TakeSlotHandler)
	api.POST("/furnaces/:id/disable", s.DisableHandler)
	api.POST("/furnaces/:id/generator", s.GeneratorHandler)
	api.POST("/furnaces/:id/save", s.SaveHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, s.timeout).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) ListFurnacesHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.furnaceIds)
}

func (s *Server) GetFurnaceHandler(c echo.Context) error {
	res, err := s.request(domain.GetFurnaceStateRequest{FurnaceRequestMixIn: domain.ForFurnace(c.Param("id"))})
	if err != nil {
		return s.respondError(c, err)
	}
	state := res.(domain.GetFurnaceStateResponse)
	return c.JSON(http.StatusOK, furnaceStateResponse{Id: state.Id, Snapshot: state.Snapshot})
}

func (s *Server) ReceiveEnergyHandler(c echo.Context) error {
	var body energyRequest
	if err := c.Bind(&body); err != nil {
		return err
	}
	if body.Amount < 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "amount must be >= 0"})
	}
	side, err := furnace.ParseDirection(body.Side)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	res, err := s.request(domain.ReceiveEnergyRequest{
		FurnaceRequestMixIn: domain.ForFurnace(c.Param("id")),
		Amount:              body.Amount,
		Voltage:             body.Voltage,
		Side:                side,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	resp := res.(domain.ReceiveEnergyResponse)
	return c.JSON(http.StatusOK, energyResponse{Rejected: resp.Rejected, Overloaded: resp.Overloaded})
}

func (s *Server) SetSlotHandler(c echo.Context) error {
	slot, err := parseSlot(c.Param("slot"))
	if err != nil {
		return s.respondError(c, err)
	}
	var stack furnace.ItemStack
	if err := c.Bind(&stack); err != nil {
		return err
	}
	res, err := s.request(domain.SetSlotRequest{
		FurnaceRequestMixIn: domain.ForFurnace(c.Param("id")),
		Slot:                slot,
		Stack:               stack,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, res.(domain.SetSlotResponse).Stack)
}

func (s *Server) TakeSlotHandler(c echo.Context) error {
	slot, err := parseSlot(c.Param("slot"))
	if err != nil {
		return s.respondError(c, err)
	}
	count := 0
	if raw := c.QueryParam("count"); raw != "" {
		count, err = strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid count"})
		}
	}
	res, err := s.request(domain.TakeSlotRequest{
		FurnaceRequestMixIn: domain.ForFurnace(c.Param("id")),
		Slot:                slot,
		Count:               count,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, res.(domain.TakeSlotResponse).Taken)
}

func (s *Server) DisableHandler(c echo.Context) error {
	body := disableRequest{Disable: true}
	if err := c.Bind(&body); err != nil {
		return err
	}
	res, err := s.request(domain.DisableFurnaceRequest{
		FurnaceRequestMixIn: domain.ForFurnace(c.Param("id")),
		Disable:             body.Disable,
		Ticks:               body.Ticks,
	})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, disableResponse{Ticks: res.(domain.DisableFurnaceResponse).Ticks})
}

func (s *Server) GeneratorHandler(c echo.Context) error {
	var body generatorRequest
	if err := c.Bind(&body); err != nil {
		return err
	}
	res, err := s.request(domain.SetGeneratorPowerRequest{
		FurnaceRequestMixIn: domain.ForFurnace(c.Param("id")),
		Watts:               body.Watts,
	})
	if err != nil {
		if errors.Is(err, actor.ErrTimeout) || errors.Is(err, domain.ErrFurnaceNotFound) {
			return s.respondError(c, err)
		}
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, generatorResponse{Watts: res.(domain.SetGeneratorPowerResponse).Watts})
}

func (s *Server) SaveHandler(c echo.Context) error {
	_, err := s.request(domain.SaveFurnaceRequest{FurnaceRequestMixIn: domain.ForFurnace(c.Param("id"))})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) SaveAllHandler(c echo.Context) error {
	res, err := s.request(domain.SaveAllFurnacesRequest{})
	if err != nil {
		return s.respondError(c, err)
	}
	return c.JSON(http.StatusOK, saveAllResponse{Saved: res.(domain.SaveAllFurnacesResponse).Requested})
}

// request asks the master and unwraps response errors
func (s *Server) request(msg any) (any, error) {
	res, err := s.rootContext.RequestFuture(s.masterActor, msg, s.timeout).Result()
	if err != nil {
		return nil, err
	}
	if resp, ok := res.(domain.ActorResponse); ok && resp.HasResponseError() {
		return nil, resp.GetResponseError()
	}
	return res, nil
}

func (s *Server) respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidSlot):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrFurnaceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrFurnaceDestroyed):
		status = http.StatusConflict
	case errors.Is(err, actor.ErrTimeout), errors.Is(err, domain.ErrFurnaceLoading):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.JSON(status, errorResponse{Error: err.Error()})
}

// parseSlot accepts a slot name or its index
func parseSlot(raw string) (furnace.Slot, error) {
	for slot := furnace.Slot(0); slot < furnace.SlotCount; slot++ {
		if slot.String() == raw {
			return slot, nil
		}
	}
	index, err := strconv.Atoi(raw)
	if err != nil || !furnace.Slot(index).Valid() {
		return furnace.Slot(-1), domain.ErrInvalidSlot
	}
	return furnace.Slot(index), nil
}
