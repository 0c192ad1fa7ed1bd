package memory

import (
	"context"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	repo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"
)

type movementRepo struct {
	v *view
}

func (r *movementRepo) Create(_ context.Context, m model.InventoryMovement) error {
	return r.v.run(func() error {
		r.v.s.nextMovementID++
		m.ID = r.v.s.nextMovementID
		n := len(r.v.s.movements)
		r.v.s.movements = append(r.v.s.movements, m)
		r.v.onRollback(func() { r.v.s.movements = r.v.s.movements[:n] })
		return nil
	})
}

func (r *movementRepo) ListByItem(_ context.Context, ref model.ItemRef) ([]model.InventoryMovement, error) {
	out := []model.InventoryMovement{}
	err := r.v.run(func() error {
		for _, m := range r.v.s.movements {
			if m.Ref() == ref {
				out = append(out, m)
			}
		}
		return nil
	})
	return out, err
}

type auditLogRepo struct {
	v *view
}

func (r *auditLogRepo) Create(_ context.Context, l model.AuditLog) error {
	return r.v.run(func() error {
		r.v.s.nextAuditID++
		l.ID = r.v.s.nextAuditID
		n := len(r.v.s.auditLogs)
		r.v.s.auditLogs = append(r.v.s.auditLogs, l)
		r.v.onRollback(func() { r.v.s.auditLogs = r.v.s.auditLogs[:n] })
		return nil
	})
}

// 新しい順
func (r *auditLogRepo) List(_ context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	var total int64
	err := r.v.run(func() error {
		var all []model.AuditLog
		for i := len(r.v.s.auditLogs) - 1; i >= 0; i-- {
			l := r.v.s.auditLogs[i]
			if f.ActorUserID != nil && l.ActorUserID != *f.ActorUserID {
				continue
			}
			if f.Action != "" && l.Action != f.Action {
				continue
			}
			if f.ResourceType != "" && l.ResourceType != f.ResourceType {
				continue
			}
			if f.ResourceID != nil && l.ResourceID != *f.ResourceID {
				continue
			}
			if f.From != nil && l.CreatedAt.Before(*f.From) {
				continue
			}
			if f.To != nil && l.CreatedAt.After(*f.To) {
				continue
			}
			all = append(all, l)
		}

		if f.Limit <= 0 || f.Limit > 200 {
			f.Limit = 50
		}
		total = int64(len(all))
		out = paginate(all, f.Page, f.Limit)
		return nil
	})
	return out, total, err
}
