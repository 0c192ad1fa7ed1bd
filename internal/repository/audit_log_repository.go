package repository

import (
	"context"
	"time"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
)

// 監査ログの絞り込み条件。空の項目は条件にしない。
type AuditLogFilter struct {
	Page         int
	Limit        int
	ActorUserID  *int64
	Action       model.AuditAction
	ResourceType model.AuditResourceType
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
}

type AuditLogRepository interface {
	//監査ログを1件保存
	Create(ctx context.Context, log model.AuditLog) error

	//新しい順に一覧＋総件数
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, int64, error)
}
