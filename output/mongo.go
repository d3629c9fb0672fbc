package output

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/upayanmazumder/Advanced-Traffic-Control-System-for-Urban-Road-Network/entity"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const signalsCollection = "signals"

// MongoSink 信号状态持久化
// 功能：每个周期按(路口, 进口道)批量upsert最新的计数与信号
type MongoSink struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewMongoSink 连接MongoDB
// 参数：uri-连接串，db-数据库名，timeout-单次写入超时
func NewMongoSink(ctx context.Context, uri, db string, timeout time.Duration) (*MongoSink, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return &MongoSink{
		client:  client,
		coll:    client.Database(db).Collection(signalsCollection),
		timeout: timeout,
	}, nil
}

// Report 异步批量写入，不等待结果
func (s *MongoSink) Report(records []entity.SignalRecord) {
	models := buildWriteModels(records)
	if len(models) == 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		res, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
		if err != nil {
			log.WithFields(logrus.Fields{
				"collection": signalsCollection,
				"records":    len(models),
			}).Warnf("bulk upsert failed: %v", err)
			return
		}
		log.Debugf("upserted %d, modified %d", res.UpsertedCount, res.ModifiedCount)
	}()
}

// Close 等待进行中的写入并断开连接
func (s *MongoSink) Close(ctx context.Context) error {
	s.wg.Wait()
	return s.client.Disconnect(ctx)
}

// buildWriteModels 每条记录生成一个upsert
// 说明：以(intersection, road)为键，人工控制标记随记录写入
func buildWriteModels(records []entity.SignalRecord) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(records))
	for _, r := range records {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.D{
				{Key: "intersection", Value: r.Intersection},
				{Key: "road", Value: r.Road},
			}).
			SetUpdate(bson.D{{Key: "$set", Value: bson.D{
				{Key: "cars", Value: r.Cars},
				{Key: "ambulances", Value: r.Ambulances},
				{Key: "schoolbuses", Value: r.SchoolBuses},
				{Key: "accidents", Value: r.Accidents},
				{Key: "signal", Value: r.Signal},
				{Key: "phase", Value: r.Phase},
				{Key: "dynamic_green_duration", Value: r.DynamicGreenDuration},
				{Key: "congestion_level", Value: r.CongestionLevel},
				{Key: "mode", Value: r.Mode},
				{Key: "manuallyOverridden", Value: r.ManuallyOverridden},
				{Key: "updatedAt", Value: r.Timestamp},
			}}}).
			SetUpsert(true))
	}
	return models
}
