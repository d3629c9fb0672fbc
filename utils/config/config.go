package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v2"
)

var (
	ErrBadClock = errors.New("time must be formatted as HH:MM")
)

// 默认值，与原有启发式控制保持一致
const (
	defaultBaseDuration      = 10.
	defaultExtensionFactor   = 0.5
	defaultMaxExtension      = 20.
	defaultMinPhaseDuration  = 5.
	defaultSchoolBusDuration = 30.
	defaultSchoolBoost       = 1.5
	defaultPredictionAlpha   = 0.5
	defaultAdjacencyWeight   = 0.1
	defaultCycleLength       = 60.
	defaultListen            = ":51102"

	defaultEpsilon         = 0.2
	defaultGamma           = 0.9
	defaultLearningRate    = 1e-3
	defaultBatchSize       = 32
	defaultBufferCapacity  = 10000
	defaultEpisodes        = 1000
	defaultStepsPerEpisode = 10
	defaultTimeoutMs       = 2000
)

// Control 决策核心使用的已解析参数
type Control struct {
	Mode               string
	UseFuzzyLogic      bool
	BaseDuration       float64
	ExtensionFactor    float64
	MaxExtension       float64
	MinPhaseDuration   time.Duration
	SchoolBusTime      string
	SchoolWindow       time.Duration
	SchoolIntersection string
	SchoolRoad         string
	SchoolBoost        float64
	PredictionAlpha    float64
	AdjacencyWeight    float64
	CycleLength        float64
	Adjacency          map[string]string
	Grid               Grid
}

// Learning 强化学习智能体使用的已解析参数
type Learning struct {
	Epsilon         float64
	Gamma           float64
	LearningRate    float64
	BatchSize       int
	BufferCapacity  int
	Episodes        int
	StepsPerEpisode int
	Seed            uint64
	ModelPath       string
	TrainOnStart    bool
}

// RuntimeConfig 运行时配置
// 功能：存储填充默认值并校验后的配置
type RuntimeConfig struct {
	All Config   // 全部配置
	C   Control  // 决策控制配置
	RL  Learning // 强化学习配置（已填充默认值）
	Out Output   // 输出配置（已填充默认值）
}

// Load 解析YAML配置
// 功能：严格模式解析，未知字段报错
func Load(data []byte) (Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return c, nil
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：填充默认值，校验时刻格式与取值范围
// 参数：config-原始配置对象
// 返回：运行时配置指针与错误
func NewRuntimeConfig(config Config) (*RuntimeConfig, error) {
	rc := &RuntimeConfig{All: config}

	c := Control{
		Mode:               config.OperationMode,
		UseFuzzyLogic:      config.UseFuzzyLogic,
		BaseDuration:       orDefault(config.BaseDuration, defaultBaseDuration),
		ExtensionFactor:    orDefault(config.ExtensionFactor, defaultExtensionFactor),
		MaxExtension:       orDefault(config.MaxExtension, defaultMaxExtension),
		MinPhaseDuration:   seconds(orDefault(config.MinPhaseDuration, defaultMinPhaseDuration)),
		SchoolBusTime:      config.SchoolBusTime,
		SchoolWindow:       time.Duration(orDefault(config.SchoolBusDuration, defaultSchoolBusDuration) * float64(time.Minute)),
		SchoolIntersection: config.SchoolIntersection,
		SchoolRoad:         config.SchoolRoad,
		SchoolBoost:        orDefault(config.SchoolBoost, defaultSchoolBoost),
		PredictionAlpha:    orDefault(config.PredictionAlpha, defaultPredictionAlpha),
		AdjacencyWeight:    orDefault(config.AdjacencyWeight, defaultAdjacencyWeight),
		CycleLength:        orDefault(config.CycleLength, defaultCycleLength),
		Adjacency:          config.Adjacency,
		Grid:               config.Grid,
	}
	if c.Mode == "" {
		c.Mode = "normal"
	}
	if c.Adjacency == nil {
		c.Adjacency = map[string]string{}
	}
	if c.SchoolBusTime != "" {
		if _, err := ParseClock(c.SchoolBusTime); err != nil {
			return nil, err
		}
	}
	if c.BaseDuration < 0 || c.ExtensionFactor < 0 || c.MaxExtension < 0 || c.MinPhaseDuration < 0 {
		return nil, fmt.Errorf("config: durations must be non-negative")
	}
	if c.PredictionAlpha <= 0 || c.PredictionAlpha > 1 {
		return nil, fmt.Errorf("config: prediction_alpha %v out of (0, 1]", c.PredictionAlpha)
	}
	if c.Grid.Rows < 0 || c.Grid.Cols < 0 {
		return nil, fmt.Errorf("config: negative grid size %dx%d", c.Grid.Rows, c.Grid.Cols)
	}
	rc.C = c

	rl := Learning{
		Epsilon:         orDefault(config.RL.Epsilon, defaultEpsilon),
		Gamma:           orDefault(config.RL.Gamma, defaultGamma),
		LearningRate:    orDefault(config.RL.LearningRate, defaultLearningRate),
		BatchSize:       config.RL.BatchSize,
		BufferCapacity:  config.RL.BufferCapacity,
		Episodes:        config.RL.Episodes,
		StepsPerEpisode: config.RL.StepsPerEpisode,
		Seed:            config.RL.Seed,
		ModelPath:       config.RL.ModelPath,
		TrainOnStart:    config.RL.TrainOnStart,
	}
	if rl.Epsilon < 0 || rl.Epsilon > 1 {
		return nil, fmt.Errorf("config: rl epsilon %v out of [0, 1]", rl.Epsilon)
	}
	if rl.Gamma < 0 || rl.Gamma > 1 {
		return nil, fmt.Errorf("config: rl gamma %v out of [0, 1]", rl.Gamma)
	}
	if rl.LearningRate <= 0 {
		return nil, fmt.Errorf("config: rl learning_rate %v must be positive", rl.LearningRate)
	}
	if rl.BatchSize == 0 {
		rl.BatchSize = defaultBatchSize
	}
	if rl.BufferCapacity == 0 {
		rl.BufferCapacity = defaultBufferCapacity
	}
	if rl.Episodes == 0 {
		rl.Episodes = defaultEpisodes
	}
	if rl.StepsPerEpisode == 0 {
		rl.StepsPerEpisode = defaultStepsPerEpisode
	}
	if rl.BatchSize > rl.BufferCapacity {
		return nil, fmt.Errorf("config: rl batch_size %d exceeds buffer_capacity %d", rl.BatchSize, rl.BufferCapacity)
	}
	rc.RL = rl

	out := config.Output
	if out.TimeoutMs == 0 {
		out.TimeoutMs = defaultTimeoutMs
	}
	if out.MongoDB == "" {
		out.MongoDB = "traffic"
	}
	rc.Out = out

	if rc.All.Listen == "" {
		rc.All.Listen = defaultListen
	}
	return rc, nil
}

// ParseClock 解析HH:MM格式时刻，返回当日分钟数
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func orDefault(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
