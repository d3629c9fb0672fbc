// 提供基于SQLite的仅追加历史记录：每周期的检测计数与信号决策
// 历史决策可作为回归模型的训练样本，最新一周期的计数用于事故查询
package history

import (
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/clock"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/predictor"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS counts (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	cycle_id     TEXT NOT NULL,
	intersection TEXT NOT NULL,
	road         TEXT NOT NULL,
	cars         INTEGER NOT NULL,
	ambulances   INTEGER NOT NULL,
	schoolbuses  INTEGER NOT NULL,
	accidents    INTEGER NOT NULL,
	congestion   TEXT NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS decisions (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	cycle_id            TEXT NOT NULL,
	intersection        TEXT NOT NULL,
	road                TEXT NOT NULL,
	phase               TEXT NOT NULL,
	signal              TEXT NOT NULL,
	duration            REAL NOT NULL,
	effective_demand    REAL NOT NULL,
	hour                REAL NOT NULL,
	mode                TEXT NOT NULL,
	manually_overridden INTEGER NOT NULL,
	created_at          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_counts_cycle ON counts(cycle_id);
CREATE INDEX IF NOT EXISTS idx_decisions_mode ON decisions(mode, signal);
`

// Store 历史记录存储
type Store struct {
	db *sql.DB
}

// NewStore 打开SQLite数据库并建表
// 参数：path-数据库文件路径，":memory:"为内存数据库
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	// 内存数据库每个连接相互独立
	db.SetMaxOpenConns(1)
	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: pragma: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close 关闭数据库
func (s *Store) Close() error {
	return s.db.Close()
}

// LogCycle 追加一个周期的检测计数
// 说明：按路口ID、进口道顺序写入，缺失的进口道计为0
func (s *Store) LogCycle(cycleID string, traffic entity.TrafficData, ts time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO counts
		(cycle_id, intersection, road, cars, ambulances, schoolbuses, accidents, congestion, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("history: prepare: %w", err)
	}
	defer stmt.Close()

	created := ts.Format(time.RFC3339Nano)
	ids := lo.Keys(traffic)
	slices.Sort(ids)
	for _, id := range ids {
		for _, road := range entity.Roads {
			c := traffic[id].Counts(road)
			if _, err := stmt.Exec(
				cycleID, id, string(road),
				c.Get(entity.Car), c.Get(entity.Ambulance), c.Get(entity.SchoolBus), c.Get(entity.Accident),
				string(entity.CongestionOf(c.Total())), created,
			); err != nil {
				return fmt.Errorf("history: insert counts: %w", err)
			}
		}
	}
	return tx.Commit()
}

// LogSignals 追加一个周期的信号决策
func (s *Store) LogSignals(cycleID string, records []entity.SignalRecord, ts time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO decisions
		(cycle_id, intersection, road, phase, signal, duration, effective_demand, hour, mode, manually_overridden, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("history: prepare: %w", err)
	}
	defer stmt.Close()

	created := ts.Format(time.RFC3339Nano)
	hour := clock.HourOfDay(ts)
	for _, r := range records {
		if _, err := stmt.Exec(
			cycleID, r.Intersection, string(r.Road), string(r.Phase), string(r.Signal),
			r.DynamicGreenDuration, r.EffectiveDemand, hour, string(r.Mode), lo.Ternary(r.ManuallyOverridden, 1, 0), created,
		); err != nil {
			return fmt.Errorf("history: insert decision: %w", err)
		}
	}
	return tx.Commit()
}

// TrainingSamples 从反应式模式的历史决策中提取回归训练样本
// 参数：limit-最多返回的样本数，<=0表示不限
// 返回：每个(周期, 路口)一条样本，按写入顺序
// 说明：人工控制的决策不作为样本
func (s *Store) TrainingSamples(limit int) ([]predictor.Sample, error) {
	query := `SELECT effective_demand, hour, duration, MIN(id) AS first_id
		FROM decisions
		WHERE mode = ? AND signal = ? AND manually_overridden = 0
		GROUP BY cycle_id, intersection
		ORDER BY first_id`
	args := []any{string(entity.ModeNormal), string(entity.Green)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query samples: %w", err)
	}
	defer rows.Close()

	var out []predictor.Sample
	for rows.Next() {
		var smp predictor.Sample
		var first int64
		if err := rows.Scan(&smp.Effective, &smp.Hour, &smp.Green, &first); err != nil {
			return nil, fmt.Errorf("history: scan sample: %w", err)
		}
		out = append(out, smp)
	}
	return out, rows.Err()
}

// Accidents 最近一个周期中事故数不少于1的进口道
func (s *Store) Accidents() ([]entity.AccidentReport, error) {
	rows, err := s.db.Query(`SELECT cycle_id, intersection, road, accidents
		FROM counts
		WHERE cycle_id = (SELECT cycle_id FROM counts ORDER BY id DESC LIMIT 1)
			AND accidents >= 1
		ORDER BY intersection, road`)
	if err != nil {
		return nil, fmt.Errorf("history: query accidents: %w", err)
	}
	defer rows.Close()

	var out []entity.AccidentReport
	for rows.Next() {
		var r entity.AccidentReport
		var road string
		if err := rows.Scan(&r.CycleID, &r.Intersection, &road, &r.Accidents); err != nil {
			return nil, fmt.Errorf("history: scan accident: %w", err)
		}
		r.Road = entity.Road(road)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	log.Debugf("%d roads with accidents", len(out))
	return out, nil
}
