// 提供决策结果的下游输出：Connect上报与MongoDB持久化
// 全部输出均为即发即弃，失败只记录日志，不影响决策周期
package output

import (
	"cmp"
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils"
)

const (
	CollectorServiceName = "signal.v1.CollectorService"
	ReportProcedure      = "/" + CollectorServiceName + "/Report"
)

type ReportRequest struct {
	Records []entity.SignalRecord `json:"records"`
}

type ReportResponse struct {
	Accepted int `json:"accepted"`
}

// Collector 信号上报客户端
// 功能：每个周期的记录异步发送到收集端，带超时
type Collector struct {
	client  *connect.Client[ReportRequest, ReportResponse]
	url     string
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewCollector 创建上报客户端
// 参数：httpClient-HTTP客户端，baseURL-收集端地址，timeout-单次上报超时
func NewCollector(httpClient connect.HTTPClient, baseURL string, timeout time.Duration) *Collector {
	return &Collector{
		client:  connect.NewClient[ReportRequest, ReportResponse](httpClient, baseURL+ReportProcedure, utils.WithJSON()),
		url:     baseURL,
		timeout: timeout,
	}
}

// Report 异步上报，不等待结果
func (c *Collector) Report(records []entity.SignalRecord) {
	if len(records) == 0 {
		return
	}
	records = slices.Clone(records)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if _, err := c.client.CallUnary(ctx, connect.NewRequest(&ReportRequest{Records: records})); err != nil {
			log.WithFields(logrus.Fields{
				"url":     c.url,
				"records": len(records),
			}).Warnf("dispatch failed: %v", err)
		}
	}()
}

// Wait 等待全部进行中的上报结束
func (c *Collector) Wait() {
	c.wg.Wait()
}

type recordKey struct {
	intersection string
	road         entity.Road
}

// CollectorHandler 收集端
// 功能：接收上报并保留每个(路口, 进口道)的最新记录
type CollectorHandler struct {
	mtx      sync.RWMutex
	latest   map[recordKey]entity.SignalRecord
	received int
}

func NewCollectorHandler() *CollectorHandler {
	return &CollectorHandler{latest: make(map[recordKey]entity.SignalRecord)}
}

// Register 将CollectorService注册到mux
func (h *CollectorHandler) Register(mux *http.ServeMux) {
	mux.Handle(ReportProcedure, connect.NewUnaryHandler(ReportProcedure, h.Report, utils.WithJSON()))
}

// Report RPC接口：接收一个周期的记录
func (h *CollectorHandler) Report(
	ctx context.Context, in *connect.Request[ReportRequest],
) (*connect.Response[ReportResponse], error) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	for _, r := range in.Msg.Records {
		h.latest[recordKey{r.Intersection, r.Road}] = r
	}
	h.received += len(in.Msg.Records)
	return connect.NewResponse(&ReportResponse{Accepted: len(in.Msg.Records)}), nil
}

// Latest 按路口、进口道排序返回最新记录
func (h *CollectorHandler) Latest() []entity.SignalRecord {
	h.mtx.RLock()
	defer h.mtx.RUnlock()
	out := lo.Values(h.latest)
	slices.SortFunc(out, func(a, b entity.SignalRecord) int {
		return cmp.Or(
			cmp.Compare(a.Intersection, b.Intersection),
			cmp.Compare(a.Road, b.Road),
		)
	})
	return out
}

// Received 累计接收的记录数
func (h *CollectorHandler) Received() int {
	h.mtx.RLock()
	defer h.mtx.RUnlock()
	return h.received
}
