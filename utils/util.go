package utils

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// JSONCodec Connect使用的JSON编解码器
// 功能：让Connect在没有protobuf生成代码的情况下直接传输Go结构体
// 说明：名称为"json"，覆盖Connect内置的protojson编解码器，Content-Type为application/json
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// WithJSON 同时适用于客户端与服务端的Connect选项
func WithJSON() connect.Option {
	return connect.WithCodec(JSONCodec{})
}
