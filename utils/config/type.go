package config

// Grid 路网网格拓扑配置
// 功能：描述rows×cols的路口网格，路口ID按行优先从"1"开始编号
// 说明：只用于需求估计中的邻居查找，与adjacency配对无关
type Grid struct {
	Rows int `yaml:"rows"`
	Cols int `yaml:"cols"`
}

// RL 强化学习智能体配置
type RL struct {
	Epsilon         *float64 `yaml:"epsilon,omitempty"`           // 探索概率，0为纯贪心
	Gamma           *float64 `yaml:"gamma,omitempty"`             // 折扣因子
	LearningRate    *float64 `yaml:"learning_rate,omitempty"`     // 学习率
	BatchSize       int      `yaml:"batch_size,omitempty"`        // 小批量大小
	BufferCapacity  int      `yaml:"buffer_capacity,omitempty"`   // 经验回放容量
	Episodes        int      `yaml:"episodes,omitempty"`          // 离线训练回合数
	StepsPerEpisode int      `yaml:"steps_per_episode,omitempty"` // 每回合步数
	Seed            uint64   `yaml:"seed,omitempty"`              // 随机数种子
	ModelPath       string   `yaml:"model_path,omitempty"`        // 模型快照路径，为空则不持久化
	TrainOnStart    bool     `yaml:"train_on_start,omitempty"`    // 启动时若无快照则离线训练
}

// Output 输出配置
type Output struct {
	CollectorURL string `yaml:"collector_url,omitempty"` // 远端收集器地址，为空则不上报
	TimeoutMs    int    `yaml:"timeout_ms,omitempty"`    // 上报超时（毫秒）
	MongoURI     string `yaml:"mongo_uri,omitempty"`     // MongoDB连接字符串，为空则不写入
	MongoDB      string `yaml:"mongo_db,omitempty"`      // MongoDB数据库名
	HistoryDB    string `yaml:"history_db,omitempty"`    // 拥堵历史SQLite路径，为空则不记录
}

// Config YAML配置文件的根结构
// 功能：定义整个信号控制系统的配置结构
type Config struct {
	Adjacency          map[string]string `yaml:"adjacency,omitempty"`           // 相邻路口配对
	Grid               Grid              `yaml:"grid,omitempty"`                // 网格拓扑
	OperationMode      string            `yaml:"operation_mode,omitempty"`      // normal|ml|rl
	UseFuzzyLogic      bool              `yaml:"use_fuzzy_logic,omitempty"`     // 是否启用模糊阈值
	BaseDuration       *float64          `yaml:"base_duration,omitempty"`       // 基础绿灯时长（秒）
	ExtensionFactor    *float64          `yaml:"extension_factor,omitempty"`    // 每单位需求延长的秒数
	MaxExtension       *float64          `yaml:"max_extension,omitempty"`       // 最大延长（秒）
	MinPhaseDuration   *float64          `yaml:"min_phase_duration,omitempty"`  // 最小相位保持时间（秒）
	SchoolBusTime      string            `yaml:"school_bus_time,omitempty"`     // 校车优先时刻 HH:MM
	SchoolBusDuration  *float64          `yaml:"school_bus_duration,omitempty"` // 放学窗口长度（分钟）
	SchoolIntersection string            `yaml:"school_intersection,omitempty"` // 校车优先路口
	SchoolRoad         string            `yaml:"school_road,omitempty"`         // 放学窗口加成的进口道
	SchoolBoost        *float64          `yaml:"school_boost,omitempty"`        // 放学窗口绿灯倍率
	PredictionAlpha    *float64          `yaml:"prediction_alpha,omitempty"`    // EMA权重
	AdjacencyWeight    *float64          `yaml:"adjacency_weight,omitempty"`    // 网格邻居需求权重
	CycleLength        *float64          `yaml:"cycle_length,omitempty"`        // 名义周期长度（秒）
	RL                 RL                `yaml:"rl,omitempty"`
	Output             Output            `yaml:"output,omitempty"`
	Listen             string            `yaml:"listen,omitempty"` // RPC监听地址
}
