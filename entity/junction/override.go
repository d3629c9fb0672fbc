package junction

import (
	"errors"
	"fmt"
	"maps"

	"github.com/sirupsen/logrus"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
)

// 人工控制方向
const (
	DirectionNS = "n-s"
	DirectionEW = "e-w"
)

var (
	ErrBadDirection = errors.New("direction must be n-s or e-w")
	ErrEmptyID      = errors.New("intersection id is empty")
)

// ParseDirection 解析人工控制方向为放行轴
func ParseDirection(s string) (entity.Phase, error) {
	switch s {
	case DirectionNS:
		return entity.PhaseA, nil
	case DirectionEW:
		return entity.PhaseB, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadDirection, s)
	}
}

// SetOverride 人工指定路口的放行轴，直到被清除
func (m *JunctionManager) SetOverride(id string, axis entity.Phase) error {
	if id == "" {
		return ErrEmptyID
	}
	if axis != entity.PhaseA && axis != entity.PhaseB {
		return fmt.Errorf("%w: axis %q", ErrBadDirection, axis)
	}
	m.mtx.Lock()
	m.overrides[id] = axis
	m.mtx.Unlock()
	log.WithFields(logrus.Fields{"intersection": id, "axis": axis}).Info("manual override set")
	return nil
}

// ClearOverride 清除人工控制，返回清除前是否存在
func (m *JunctionManager) ClearOverride(id string) bool {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	_, ok := m.overrides[id]
	delete(m.overrides, id)
	if ok {
		log.WithField("intersection", id).Info("manual override cleared")
	}
	return ok
}

// Overrides 当前全部人工控制的副本
func (m *JunctionManager) Overrides() map[string]entity.Phase {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return maps.Clone(m.overrides)
}
