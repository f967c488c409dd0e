// Package storage 聚合存储资源：数据库、对象存储、KV 缓存与消息队列.
//
// Example:
//
// 初始化
//
//	ctx := context.Background()
//	mgr, err := storage.Init(ctx, configs.GetConfig())
//	if err != nil {
//		// 处理错误
//	}
//	defer mgr.Close()
//
// 获取存储客户端
//
//	blob := mgr.GetBlobStore()
//	dbClient := mgr.GetDBClient()
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/yeisme/ingestvault/pkg/configs"
	dbc "github.com/yeisme/ingestvault/pkg/internal/storage/db"
	kvc "github.com/yeisme/ingestvault/pkg/internal/storage/kv"
	mqc "github.com/yeisme/ingestvault/pkg/internal/storage/mq"
	s3c "github.com/yeisme/ingestvault/pkg/internal/storage/s3"
	nlog "github.com/yeisme/ingestvault/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	DB   *dbc.Client
	S3   *s3c.Client // 仅 minio 后端时非空
	Blob s3c.BlobStore
	KV   *kvc.Client
	MQ   *mqc.Client // 事件发布关闭时为空
}

// Init 按配置初始化全部存储；任一资源失败时关闭已打开的资源.
func Init(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	m := &Manager{}

	if err := m.init(ctx, cfg); err != nil {
		if cerr := m.Close(); cerr != nil {
			nlog.Logger().Warn().Err(cerr).Msg("close partially initialized storage")
		}

		return nil, err
	}

	nlog.Logger().Info().
		Str("db", string(cfg.DB.Type)).
		Str("s3", string(cfg.S3.Type)).
		Str("kv", cfg.KV.Type).
		Bool("events", cfg.Events.Enabled).
		Msg("storage manager initialized")

	return m, nil
}

func (m *Manager) init(ctx context.Context, cfg *configs.AppConfig) error {
	dbi, err := dbc.New(ctx, &cfg.DB)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}

	m.DB = dbi

	switch cfg.S3.Type {
	case configs.S3TypeMemory:
		m.Blob = s3c.NewMemoryBucket()
	default:
		s3i, err := s3c.New(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("init s3: %w", err)
		}

		m.S3 = s3i
		m.Blob = s3c.NewBucket(s3i, &cfg.S3, cfg.CircuitBreaker)
	}

	kvi, err := kvc.NewKVClient(ctx, &cfg.KV)
	if err != nil {
		return fmt.Errorf("init kv: %w", err)
	}

	m.KV = kvi

	if cfg.Events.Enabled {
		mqi, err := mqc.New(ctx, &cfg.MQ)
		if err != nil {
			return fmt.Errorf("init mq: %w", err)
		}

		m.MQ = mqi
	}

	return nil
}

// GetBlobStore 获取对象写入网关.
func (m *Manager) GetBlobStore() s3c.BlobStore {
	return m.Blob
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端，可能为空.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// HealthCheck 依次检查数据库、对象存储与 KV.
func (m *Manager) HealthCheck(ctx context.Context) map[string]error {
	res := map[string]error{}

	if m.DB != nil {
		res["db"] = m.DB.Ping(ctx)
	}

	if m.Blob != nil {
		res["blob"] = m.Blob.HealthCheck(ctx)
	}

	if m.KV != nil {
		res["kv"] = PingKV(ctx, m.KV)
	}

	return res
}

// PingKV 用一次不存在键的查询探测 KV 连通性.
func PingKV(ctx context.Context, kv *kvc.Client) error {
	_, err := kv.Exists(ctx, "health:probe")

	return err
}

// Close 关闭全部已打开的资源.
func (m *Manager) Close() error {
	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.S3 != nil {
		errs = append(errs, m.S3.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
