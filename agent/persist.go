package agent

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/vmihailenco/msgpack/v5"
)

// 模型文件格式版本
const snapshotVersion = 1

var (
	ErrSnapshotVersion = errors.New("agent: unsupported model snapshot version")
)

// Snapshot 模型快照（网络权重与探索参数），不含经验回放
type Snapshot struct {
	Version int         `msgpack:"version"`
	Sizes   []int       `msgpack:"sizes"`
	Weights [][]float64 `msgpack:"weights"`
	Biases  [][]float64 `msgpack:"biases"`
	Epsilon float64     `msgpack:"epsilon"`
	Gamma   float64     `msgpack:"gamma"`
}

// Snapshot 导出模型快照
func (a *Agent) Snapshot() Snapshot {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	w, b := a.net.Weights()
	return Snapshot{
		Version: snapshotVersion,
		Sizes:   a.net.Sizes(),
		Weights: w,
		Biases:  b,
		Epsilon: a.cfg.Epsilon,
		Gamma:   a.cfg.Gamma,
	}
}

// Restore 载入模型快照，网络形状必须一致
// 说明：探索参数以当前配置为准，不从快照覆盖
func (a *Agent) Restore(s Snapshot) error {
	if s.Version != snapshotVersion {
		return fmt.Errorf("%w: %d", ErrSnapshotVersion, s.Version)
	}
	a.mtx.Lock()
	defer a.mtx.Unlock()
	if !slices.Equal(s.Sizes, a.net.Sizes()) {
		return fmt.Errorf("%w: sizes %v, want %v", ErrShapeMismatch, s.Sizes, a.net.Sizes())
	}
	return a.net.SetWeights(s.Weights, s.Biases)
}

// Encode 以msgpack写出模型
func (a *Agent) Encode(w io.Writer) error {
	return msgpack.NewEncoder(w).Encode(a.Snapshot())
}

// Decode 从msgpack读入模型
func (a *Agent) Decode(r io.Reader) error {
	var s Snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return fmt.Errorf("agent: decode model: %w", err)
	}
	return a.Restore(s)
}

// Save 保存模型到文件
func (a *Agent) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := a.Encode(f); err != nil {
		f.Close()
		return err
	}
	log.Infof("model saved to %s", path)
	return f.Close()
}

// Load 从文件加载模型
func (a *Agent) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := a.Decode(f); err != nil {
		return err
	}
	log.Infof("model loaded from %s", path)
	return nil
}
