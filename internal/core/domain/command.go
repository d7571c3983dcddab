package domain

import (
	"errors"

	"github.com/berfenger/furnace2mqtt/pkg/furnace"
)

var (
	ErrFurnaceNotFound  = errors.New("furnace not found")
	ErrFurnaceDestroyed = errors.New("furnace destroyed")
	ErrFurnaceLoading   = errors.New("furnace is loading")
	ErrInvalidSlot      = errors.New("invalid slot")
)

// FurnaceRequest

type FurnaceRequest interface {
	ActorRequest
	FurnaceId() string
}

type FurnaceRequestMixIn struct {
	ActorRequestMixIn
	Id string
}

func (r FurnaceRequestMixIn) FurnaceId() string {
	return r.Id
}

func ForFurnace(id string) FurnaceRequestMixIn {
	return FurnaceRequestMixIn{Id: id}
}

// ErrorResponse answers any request that could not be routed or served
type ErrorResponse struct {
	ActorResponseMixIn
}

func NewErrorResponse(err error) ErrorResponse {
	return ErrorResponse{
		ActorResponseMixIn: ActorResponseMixIn{
			ResponseError: err,
		},
	}
}

// Furnace commands

type GetFurnaceStateRequest struct {
	FurnaceRequestMixIn
}

type GetFurnaceStateResponse struct {
	ActorResponseMixIn
	Id       string
	Snapshot furnace.Snapshot
}

type ReceiveEnergyRequest struct {
	FurnaceRequestMixIn
	Amount  float64
	Voltage int
	Side    furnace.Direction
}

type ReceiveEnergyResponse struct {
	ActorResponseMixIn
	Rejected   float64
	Overloaded bool
}

type SetSlotRequest struct {
	FurnaceRequestMixIn
	Slot  furnace.Slot
	Stack furnace.ItemStack
}

type SetSlotResponse struct {
	ActorResponseMixIn
	Stack furnace.ItemStack
}

// TakeSlotRequest removes up to Count items, or the whole stack when Count <= 0
type TakeSlotRequest struct {
	FurnaceRequestMixIn
	Slot  furnace.Slot
	Count int
}

type TakeSlotResponse struct {
	ActorResponseMixIn
	Taken furnace.ItemStack
}

// DisableFurnaceRequest suspends the furnace for Ticks ticks. When Disable is set and
// Ticks <= 0 the configured overload_disable_ticks apply. Disable false reopens the gate.
type DisableFurnaceRequest struct {
	FurnaceRequestMixIn
	Disable bool
	Ticks   int
}

type DisableFurnaceResponse struct {
	ActorResponseMixIn
	Ticks int
}

type SaveFurnaceRequest struct {
	FurnaceRequestMixIn
}

type SaveFurnaceResponse struct {
	ActorResponseMixIn
}

type SetGeneratorPowerRequest struct {
	FurnaceRequestMixIn
	Watts float64
}

type SetGeneratorPowerResponse struct {
	ActorResponseMixIn
	Watts float64
}

type SaveAllFurnacesRequest struct {
	ActorRequestMixIn
}

type SaveAllFurnacesResponse struct {
	ActorResponseMixIn
	Requested int
}

// Storage commands

type LoadFurnaceRecordRequest struct {
	ActorRequestMixIn
	Id string
}

type LoadFurnaceRecordResponse struct {
	ActorResponseMixIn
	Id     string
	Record *furnace.Record
}

type StoreFurnaceRecordRequest struct {
	ActorRequestMixIn
	Id     string
	Record furnace.Record
}

type StoreFurnaceRecordResponse struct {
	ActorResponseMixIn
	Id string
}

// ensure interface compliance
var _ FurnaceRequest = (*ReceiveEnergyRequest)(nil)
var _ FurnaceRequest = (*SetGeneratorPowerRequest)(nil)
