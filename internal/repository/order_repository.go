package repository

import (
	"context"
	"time"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page          int
	Limit         int
	Status        string
	PaymentStatus string
	UserID        *int64
	From          *time.Time
	To            *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// 行ロックを取って取得（ステータス変更用）
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (model.Order, error)
	// 同じユーザー・同じキーの注文（なければ found=false）
	FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	// order_number / (user_id, idempotency_key) が重複したらErrConflict
	Create(ctx context.Context, order model.Order) (int64, error)
	// ステータス・支払状態・時刻を保存
	Update(ctx context.Context, order model.Order) error
	Delete(ctx context.Context, orderID int64) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}

// 月ごとの連番。トランザクションと一緒にロールバックされる。
type OrderSequenceRepository interface {
	Next(ctx context.Context, period string) (int64, error)
}
