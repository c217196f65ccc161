package service

import (
	"context"
	"errors"

	"github.com/hfyy456/bread-manager-1-sub001/internal/bakery/repository"
	"github.com/hfyy456/bread-manager-1-sub001/internal/config"
	"github.com/hfyy456/bread-manager-1-sub001/internal/costing"
	"github.com/hfyy456/bread-manager-1-sub001/internal/metrics"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 错误定义
var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrStorageNotConfigured = errors.New("object storage is not configured")
)

// CatalogSource 提供一份当前的配方目录快照
type CatalogSource interface {
	LoadCatalog(ctx context.Context) (*costing.Catalog, error)
}

// Services 服务集合
type Services struct {
	Costing     *CostingService
	Plan        *PlanService
	PurchaseRun *PurchaseRunService
	Export      *ExportService
	Catalog     *CatalogService
}

// NewServices 创建服务集合。rdb 为 nil 时采购运行缓存退回进程内缓存
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *Services {
	var runCache RunCache
	if rdb != nil {
		runCache = NewRedisRunCache(rdb, cfg.Costing.RunCacheTTL, logger)
	} else {
		runCache = NewMemoryRunCache(cfg.Costing.RunCacheTTL)
	}

	// 初始化MinIO客户端
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			logger.Warn("MinIO disabled", zap.Error(err))
			minioClient = nil
		}
	}

	costingSvc := NewCostingService(repos.Catalog, cfg.Costing, logger, m)
	return &Services{
		Costing:     costingSvc,
		Plan:        NewPlanService(repos.Plan, repos.BreadType),
		PurchaseRun: NewPurchaseRunService(repos.Plan, repos.PurchaseRun, costingSvc, runCache, logger, m),
		Export:      NewExportService(minioClient, cfg.MinIO.Bucket, cfg.MinIO.PresignTTL, logger),
		Catalog:     NewCatalogService(repos, logger),
	}
}
