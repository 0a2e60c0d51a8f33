package service

import (
	"go.uber.org/zap"

	"github.com/nicopkrauss/Talenttracker2-sub022/internal/oplog"
	"github.com/nicopkrauss/Talenttracker2-sub022/internal/repository"
	"github.com/nicopkrauss/Talenttracker2-sub022/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Assignment   AssignmentService
	Schedule     ScheduleService
	Group        GroupService
	Availability AvailabilityService
	Export       ExportService
}

// NewService 创建 Service 聚合
// rdb 可为 nil：指派写入降级为仅靠事务与唯一索引保护
func NewService(
	repo *repository.Repository,
	rdb *redis.Client,
	ops *oplog.Logger,
	logger *zap.Logger,
) *Service {
	return &Service{
		Assignment:   NewAssignmentService(repo, rdb, ops, logger),
		Schedule:     NewScheduleService(repo, logger),
		Group:        NewGroupService(repo, ops, logger),
		Availability: NewAvailabilityService(repo, logger),
		Export:       NewExportService(repo, logger),
	}
}
