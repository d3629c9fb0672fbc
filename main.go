package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	easy "github.com/t-tomalak/logrus-easy-formatter"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/agent"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/history"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/output"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/predictor"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/task"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils/config"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/utils/randengine"
)

var (
	// 本程序监听的地址，为空时使用配置文件中的listen
	listenAddr = flag.String("listen", "", "Connect listening address, overrides config listen")
	// 配置文件路径
	configPath = flag.String("config", "", "config file path")
	// 配置文件Base64编码后的数据
	configData = flag.String("config-data", "", "config file base64 encoded data")
	// 回放文件，每行一个周期输入，回放结束后继续提供RPC服务
	replayPath     = flag.String("replay", "", "replay recorded cycles from a JSON lines file")
	replayInterval = flag.Duration("replay.interval", 0, "wait between replayed cycles")
	// 是否读取标准输入中的按键切换模式
	keyboard = flag.Bool("keyboard", true, "read n/m/r/q keys from stdin")
	// 历史样本训练回归模型时的最大样本数
	historySamples = flag.Int("ml.history_samples", 5000, "max historical samples for regression fitting")

	// log
	logLevels = map[string]logrus.Level{
		"trace":    logrus.TraceLevel,
		"debug":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"warn":     logrus.WarnLevel,
		"error":    logrus.ErrorLevel,
		"critical": logrus.FatalLevel,
		"off":      logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error critical off）")

	log = logrus.WithField("module", "signal")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	// log: 运行时才修改
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}
	// 获取配置
	var file []byte
	var err error
	if *configPath != "" {
		file, err = os.ReadFile(*configPath)
		if err != nil {
			log.Panicf("config file load err: %v", err)
		}
	} else if *configData != "" {
		file, err = base64.StdEncoding.DecodeString(*configData)
		if err != nil {
			log.Panicf("config data load err: %v", err)
		}
	} else {
		log.Panic("config file or config data must be specified")
	}
	c, err := config.Load(file)
	if err != nil {
		log.Panicf("config file load err: %v", err)
	}
	rc, err := config.NewRuntimeConfig(c)
	if err != nil {
		log.Panicf("config err: %v", err)
	}
	log.Infof("%+v", rc.C)

	// 输出与历史
	opts := task.Options{}
	var collector *output.Collector
	if rc.Out.CollectorURL != "" {
		collector = output.NewCollector(http.DefaultClient, rc.Out.CollectorURL, time.Duration(rc.Out.TimeoutMs)*time.Millisecond)
		opts.Reporters = append(opts.Reporters, collector)
	}
	var mongoSink *output.MongoSink
	if rc.Out.MongoURI != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoSink, err = output.NewMongoSink(ctx, rc.Out.MongoURI, rc.Out.MongoDB, time.Duration(rc.Out.TimeoutMs)*time.Millisecond)
		cancel()
		if err != nil {
			log.Panicf("mongo connect err: %v", err)
		}
		opts.Reporters = append(opts.Reporters, mongoSink)
	}
	var store *history.Store
	if rc.Out.HistoryDB != "" {
		store, err = history.NewStore(rc.Out.HistoryDB)
		if err != nil {
			log.Panicf("history store err: %v", err)
		}
		opts.CycleLogger = store
		opts.Accidents = store
	}

	// 回归模型：优先使用历史样本，否则首次预测时用合成数据训练
	regression := predictor.NewRegression(rc.RL.Seed)
	if store != nil {
		samples, err := store.TrainingSamples(*historySamples)
		if err != nil {
			log.Warnf("load training samples err: %v", err)
		} else if err := regression.Fit(samples); err != nil {
			log.Infof("regression falls back to synthetic data: %v", err)
		} else {
			log.Infof("regression fitted on %d historical samples", len(samples))
		}
	}
	opts.Regression = regression

	// 强化学习智能体：没有模型时rl模式回退到反应式
	if a := newAgent(rc); a != nil {
		opts.Recommender = a
	}

	t, err := task.NewContext(rc, opts)
	if err != nil {
		log.Panicf("task init err: %v", err)
	}

	addr := rc.All.Listen
	if *listenAddr != "" {
		addr = *listenAddr
	}
	mux := http.NewServeMux()
	t.Register(mux)
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Infof("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Panicf("failed to serve: %v", err)
		}
	}()

	quit := make(chan struct{}, 1)
	if *keyboard {
		go readKeys(t, quit)
	}
	if *replayPath != "" {
		go func() {
			f, err := os.Open(*replayPath)
			if err != nil {
				log.Errorf("replay open err: %v", err)
				return
			}
			defer f.Close()
			if _, err := t.Replay(f, *replayInterval); err != nil {
				log.Errorf("replay err: %v", err)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		log.Infof("received %v", s)
	case <-quit:
	}

	t.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Warnf("server shutdown err: %v", err)
	}
	if collector != nil {
		collector.Wait()
	}
	if mongoSink != nil {
		if err := mongoSink.Close(ctx); err != nil {
			log.Warnf("mongo close err: %v", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			log.Warnf("history close err: %v", err)
		}
	}
	log.Infof("engine complete")
}

// newAgent 加载或训练强化学习智能体
// 返回：可用的智能体，既没有模型文件也不训练时返回nil
func newAgent(rc *config.RuntimeConfig) *agent.Agent {
	a := agent.New(agent.NewConfig(rc), nil)
	path := rc.RL.ModelPath
	if path != "" {
		err := a.Load(path)
		if err == nil {
			return a
		}
		if !errors.Is(err, os.ErrNotExist) {
			log.Warnf("load rl model err: %v", err)
		}
	}
	if !rc.RL.TrainOnStart {
		log.Infof("no rl model, rl mode falls back to reactive")
		return nil
	}
	env := agent.NewSimulatedEnv(randengine.New(rc.RL.Seed + 1))
	a.Train(env, rc.RL.Episodes, rc.RL.StepsPerEpisode)
	if path != "" {
		if err := a.Save(path); err != nil {
			log.Warnf("save rl model err: %v", err)
		}
	}
	return a
}

// readKeys 按键切换模式：n-normal，m-ml，r-rl，q-退出
func readKeys(t *task.Context, quit chan<- struct{}) {
	keys := map[string]entity.Mode{
		"n": entity.ModeNormal,
		"m": entity.ModeML,
		"r": entity.ModeRL,
	}
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		key := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if key == "q" {
			quit <- struct{}{}
			return
		}
		if mode, ok := keys[key]; ok {
			t.Arbiter().SetMode(mode)
		}
	}
}
