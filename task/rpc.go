package task

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils"
)

const (
	ControlServiceName    = "signal.v1.ControlService"
	DecideProcedure       = "/" + ControlServiceName + "/Decide"
	SetModeProcedure      = "/" + ControlServiceName + "/SetMode"
	GetModeProcedure      = "/" + ControlServiceName + "/GetMode"
	GetAccidentsProcedure = "/" + ControlServiceName + "/GetAccidents"
)

type DecideRequest = Input

type DecideResponse struct {
	Records []entity.SignalRecord `json:"records"`
}

type SetModeRequest struct {
	Mode string `json:"mode"`
}

type SetModeResponse struct {
	Mode entity.Mode `json:"mode"`
}

type GetModeRequest struct{}

type GetModeResponse struct {
	Mode entity.Mode `json:"mode"`
}

type GetAccidentsRequest struct{}

type GetAccidentsResponse struct {
	Count     int                     `json:"count"`
	Accidents []entity.AccidentReport `json:"accidents"`
}

// Register 将ControlService、JunctionService与ClockService注册到mux
func (ctx *Context) Register(mux *http.ServeMux) {
	mux.Handle(DecideProcedure, connect.NewUnaryHandler(DecideProcedure, ctx.Decide, utils.WithJSON()))
	mux.Handle(SetModeProcedure, connect.NewUnaryHandler(SetModeProcedure, ctx.SetMode, utils.WithJSON()))
	mux.Handle(GetModeProcedure, connect.NewUnaryHandler(GetModeProcedure, ctx.GetMode, utils.WithJSON()))
	mux.Handle(GetAccidentsProcedure, connect.NewUnaryHandler(GetAccidentsProcedure, ctx.GetAccidents, utils.WithJSON()))
	ctx.junctions.Register(mux)
	ctx.clock.Register(mux)
}

// Decide RPC接口：提交一个周期的检测数据并返回决策
// 说明：任务关闭后拒绝新的周期
func (ctx *Context) Decide(
	c context.Context, in *connect.Request[DecideRequest],
) (*connect.Response[DecideResponse], error) {
	records, err := ctx.tryCycle(*in.Msg)
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	return connect.NewResponse(&DecideResponse{Records: records}), nil
}

// SetMode RPC接口：切换决策模式
func (ctx *Context) SetMode(
	c context.Context, in *connect.Request[SetModeRequest],
) (*connect.Response[SetModeResponse], error) {
	mode, err := entity.ParseMode(in.Msg.Mode)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	ctx.arbiter.SetMode(mode)
	return connect.NewResponse(&SetModeResponse{Mode: mode}), nil
}

// GetMode RPC接口：获取当前决策模式
func (ctx *Context) GetMode(
	c context.Context, in *connect.Request[GetModeRequest],
) (*connect.Response[GetModeResponse], error) {
	return connect.NewResponse(&GetModeResponse{Mode: ctx.arbiter.Mode()}), nil
}

// GetAccidents RPC接口：获取最近一个周期的事故
func (ctx *Context) GetAccidents(
	c context.Context, in *connect.Request[GetAccidentsRequest],
) (*connect.Response[GetAccidentsResponse], error) {
	accidents, err := ctx.Accidents()
	if errors.Is(err, ErrNoHistory) {
		return nil, connect.NewError(connect.CodeFailedPrecondition, err)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if accidents == nil {
		accidents = []entity.AccidentReport{}
	}
	return connect.NewResponse(&GetAccidentsResponse{Count: len(accidents), Accidents: accidents}), nil
}
