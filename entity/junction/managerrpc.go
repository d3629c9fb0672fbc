package junction

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils"
)

const (
	JunctionServiceName    = "signal.v1.JunctionService"
	GetPhasesProcedure     = "/" + JunctionServiceName + "/GetPhases"
	SetOverrideProcedure   = "/" + JunctionServiceName + "/SetOverride"
	ClearOverrideProcedure = "/" + JunctionServiceName + "/ClearOverride"
)

type GetPhasesRequest struct {
	ID string `json:"id,omitempty"` // 为空时返回全部路口
}

// PhaseInfo 路口最近一次提交的相位
type PhaseInfo struct {
	ID       string       `json:"id"`
	Phase    entity.Phase `json:"phase"`
	SubPhase entity.Phase `json:"sub_phase,omitempty"`
	Green    entity.Phase `json:"green"`
	Reason   Reason       `json:"reason"`
	Override entity.Phase `json:"override,omitempty"`
}

type GetPhasesResponse struct {
	Phases []PhaseInfo `json:"phases"`
}

type SetOverrideRequest struct {
	ID        string `json:"id"`
	Direction string `json:"direction"` // n-s 或 e-w
}

type SetOverrideResponse struct{}

type ClearOverrideRequest struct {
	ID string `json:"id"`
}

type ClearOverrideResponse struct {
	Cleared bool `json:"cleared"`
}

// Register 将JunctionService注册到mux
// 功能：提供相位查询与人工控制接口
func (m *JunctionManager) Register(mux *http.ServeMux) {
	mux.Handle(GetPhasesProcedure, connect.NewUnaryHandler(GetPhasesProcedure, m.GetPhases, utils.WithJSON()))
	mux.Handle(SetOverrideProcedure, connect.NewUnaryHandler(SetOverrideProcedure, m.SetOverrideRPC, utils.WithJSON()))
	mux.Handle(ClearOverrideProcedure, connect.NewUnaryHandler(ClearOverrideProcedure, m.ClearOverrideRPC, utils.WithJSON()))
}

// GetPhases RPC接口：获取路口最近一次提交的相位
// 说明：指定的路口尚未参与过决策时返回错误
func (m *JunctionManager) GetPhases(
	ctx context.Context, in *connect.Request[GetPhasesRequest],
) (*connect.Response[GetPhasesResponse], error) {
	overrides := m.Overrides()
	res := &GetPhasesResponse{Phases: []PhaseInfo{}}
	for _, d := range m.Last() {
		if in.Msg.ID != "" && d.ID != in.Msg.ID {
			continue
		}
		res.Phases = append(res.Phases, PhaseInfo{
			ID:       d.ID,
			Phase:    d.Phase,
			SubPhase: d.SubPhase,
			Green:    d.Green,
			Reason:   d.Reason,
			Override: overrides[d.ID],
		})
	}
	if in.Msg.ID != "" && len(res.Phases) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("intersection id does not exist"))
	}
	return connect.NewResponse(res), nil
}

// SetOverrideRPC RPC接口：人工指定放行方向
func (m *JunctionManager) SetOverrideRPC(
	ctx context.Context, in *connect.Request[SetOverrideRequest],
) (*connect.Response[SetOverrideResponse], error) {
	axis, err := ParseDirection(in.Msg.Direction)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err := m.SetOverride(in.Msg.ID, axis); err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewResponse(&SetOverrideResponse{}), nil
}

// ClearOverrideRPC RPC接口：清除人工控制
func (m *JunctionManager) ClearOverrideRPC(
	ctx context.Context, in *connect.Request[ClearOverrideRequest],
) (*connect.Response[ClearOverrideResponse], error) {
	if in.Msg.ID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, ErrEmptyID)
	}
	return connect.NewResponse(&ClearOverrideResponse{Cleared: m.ClearOverride(in.Msg.ID)}), nil
}
