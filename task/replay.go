package task

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔周期数")
)

// 单行输入的最大长度
const maxLineSize = 16 << 20

// Replay 回放录制的检测数据
// 功能：逐行读取JSON格式的周期输入并依次执行决策周期
// 参数：r-每行一个Input，interval-周期间隔（0表示不等待）
// 返回：执行的周期数与错误
// 算法说明：
// 1. 空行跳过，无法解析的行返回错误
// 2. 每个周期结束后按间隔等待，模拟检测器的采样节奏
// 3. 定期输出心跳日志
// 4. 任务关闭后停止
func (ctx *Context) Replay(r io.Reader, interval time.Duration) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
	cycles := 0
	line := 0
	for scanner.Scan() {
		line++
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}
		var in Input
		if err := json.Unmarshal(data, &in); err != nil {
			return cycles, fmt.Errorf("replay line %d: %w", line, err)
		}
		records, err := ctx.tryCycle(in)
		if errors.Is(err, ErrClosed) {
			break
		}
		cycles++
		if *heartBeatInterval > 0 && cycles%*heartBeatInterval == 0 {
			log.Infof("CYCLE: %s, %d records", ctx.clock, len(records))
		}
		if interval > 0 {
			time.Sleep(interval)
		}
	}
	if err := scanner.Err(); err != nil {
		return cycles, fmt.Errorf("replay: %w", err)
	}
	log.Infof("replay complete: %d cycles", cycles)
	return cycles, nil
}
