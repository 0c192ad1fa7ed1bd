package usecase

import (
	"context"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	repo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"
)

// 管理者操作の履歴を見る（書き込みは各操作のTx内で行う）
type AuditLogUsecase struct {
	tx repo.TransactionManager
}

func NewAuditLogUsecase(tx repo.TransactionManager) *AuditLogUsecase {
	return &AuditLogUsecase{tx: tx}
}

type AuditLogListOutput struct {
	Items []model.AuditLog `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (u *AuditLogUsecase) List(ctx context.Context, f repo.AuditLogFilter) (AuditLogListOutput, error) {
	if err := checkPaging(f.Page, f.Limit); err != nil {
		return AuditLogListOutput{}, err
	}
	if f.Action != "" && !isAuditAction(f.Action) {
		return AuditLogListOutput{}, validationError("invalid action")
	}
	if f.ResourceType != "" && !isAuditResource(f.ResourceType) {
		return AuditLogListOutput{}, validationError("invalid resource_type")
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return AuditLogListOutput{}, validationError("from must be <= to")
	}

	out := AuditLogListOutput{Items: []model.AuditLog{}, Page: f.Page, Limit: f.Limit}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		logs, total, err := r.AuditLogs().List(ctx, f)
		if err != nil {
			return persistenceFailure(err)
		}
		if logs != nil {
			out.Items = logs
		}
		out.Total = total
		return nil
	})
	if err != nil {
		return AuditLogListOutput{}, err
	}
	return out, nil
}

func isAuditAction(a model.AuditAction) bool {
	switch a {
	case model.AuditActionUpdateStock, model.AuditActionUpdateOrderStatus,
		model.AuditActionUpdatePaymentStatus, model.AuditActionDeleteOrder:
		return true
	}
	return false
}

func isAuditResource(t model.AuditResourceType) bool {
	switch t {
	case model.AuditResourceVehicle, model.AuditResourcePart, model.AuditResourceOrder:
		return true
	}
	return false
}
