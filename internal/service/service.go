package service

import (
	"go.uber.org/zap"

	"github.com/Dev4EM/tutorDepartment/config"
	"github.com/Dev4EM/tutorDepartment/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Schedule ScheduleService
	Export   ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	logger *zap.Logger,
) *Service {
	return &Service{
		Schedule: NewScheduleService(repo, cfg.Timeline, logger),
		Export:   NewExportService(repo, logger),
	}
}
