package clock

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils"
)

const (
	ClockServiceName = "signal.v1.ClockService"
	NowProcedure     = "/" + ClockServiceName + "/Now"
)

type NowRequest struct{}

type NowResponse struct {
	Cycle int64  `json:"cycle"`
	Time  string `json:"time"`
	HHMM  string `json:"hhmm"`
}

// Register 将ClockService注册到mux
// 功能：注册时钟服务的RPC处理器，外部可查询当前周期与时刻
func (c *Clock) Register(mux *http.ServeMux) {
	mux.Handle(NowProcedure, connect.NewUnaryHandler(NowProcedure, c.NowRPC, utils.WithJSON()))
}

// NowRPC 获取当前周期时间
func (c *Clock) NowRPC(ctx context.Context, in *connect.Request[NowRequest]) (*connect.Response[NowResponse], error) {
	c.mtx.RLock()
	cycle := c.Cycle
	c.mtx.RUnlock()
	return connect.NewResponse(&NowResponse{
		Cycle: cycle,
		Time:  c.Now().Format("2006-01-02T15:04:05.000Z07:00"),
		HHMM:  c.HHMM(),
	}), nil
}
