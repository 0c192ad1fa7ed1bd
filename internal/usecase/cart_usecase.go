package usecase

import (
	"context"
	"errors"

	"github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/domain/model"
	repo "github.com/ckwahalathanthri/abc-car-traders-web-sub001/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
// 1ユーザー1カートで、明細は (種類, ID) ごとに1行。
type CartUsecase struct {
	cartRepo    repo.CartRepository
	catalogRepo repo.CatalogRepository
}

func NewCartUsecase(cartRepo repo.CartRepository, catalogRepo repo.CatalogRepository) *CartUsecase {
	return &CartUsecase{cartRepo: cartRepo, catalogRepo: catalogRepo}
}

// price は現在の価格（確定は注文時）
type CartItemResponse struct {
	ItemKind  model.ItemKind `json:"item_kind"`
	ItemID    int64          `json:"item_id"`
	Name      string         `json:"name"`
	Price     int64          `json:"price"`
	Quantity  int64          `json:"quantity"`
	Available bool           `json:"available"`
}

type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total int64              `json:"total"`
}

type AddCartInput struct {
	Item     model.ItemRef
	Quantity int64
}

func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, unauthorized()
	}
	return u.buildCartResponse(ctx, userID)
}

// AddToCart はカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, unauthorized()
	}
	if in.Item.ID <= 0 {
		return CartResponse{}, validationError("invalid item id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, validationError("invalid quantity")
	}

	item, err := u.sellableItem(ctx, in.Item)
	if err != nil {
		return CartResponse{}, err
	}

	lines, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, persistenceFailure(err)
	}
	var existingQty int64
	for _, l := range lines {
		if l.Ref() == in.Item {
			existingQty = l.Quantity
			break
		}
	}
	if existingQty+in.Quantity > item.StockQuantity() {
		return CartResponse{}, itemUnavailable(in.Item, ReasonInsufficient)
	}
	if _, err := model.MulAmount(item.UnitPrice(), existingQty+in.Quantity); err != nil {
		return CartResponse{}, validationError("amount out of range")
	}

	if err := u.cartRepo.AddQuantity(ctx, userID, in.Item, in.Quantity); err != nil {
		return CartResponse{}, persistenceFailure(err)
	}
	return u.buildCartResponse(ctx, userID)
}

// 数量変更（在庫チェックつき）
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, ref model.ItemRef, qty int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, unauthorized()
	}
	if ref.ID <= 0 {
		return CartResponse{}, validationError("invalid item id")
	}
	if qty < 1 {
		return CartResponse{}, validationError("invalid quantity")
	}

	item, err := u.sellableItem(ctx, ref)
	if err != nil {
		return CartResponse{}, err
	}
	if qty > item.StockQuantity() {
		return CartResponse{}, itemUnavailable(ref, ReasonInsufficient)
	}
	if _, err := model.MulAmount(item.UnitPrice(), qty); err != nil {
		return CartResponse{}, validationError("amount out of range")
	}

	if err := u.cartRepo.UpdateQuantity(ctx, userID, ref, qty); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, newError(KindNotFound, "cart item not found")
		}
		return CartResponse{}, persistenceFailure(err)
	}
	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID int64, ref model.ItemRef) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, unauthorized()
	}
	if ref.ID <= 0 {
		return CartResponse{}, validationError("invalid item id")
	}

	if err := u.cartRepo.Delete(ctx, userID, ref); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, newError(KindNotFound, "cart item not found")
		}
		return CartResponse{}, persistenceFailure(err)
	}
	return u.buildCartResponse(ctx, userID)
}

func (u *CartUsecase) sellableItem(ctx context.Context, ref model.ItemRef) (model.StockableItem, error) {
	item, err := u.catalogRepo.FindItem(ctx, ref)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, itemUnavailable(ref, ReasonNotFound)
	}
	if err != nil {
		return nil, persistenceFailure(err)
	}
	if !item.Available() {
		return nil, itemUnavailable(ref, ReasonUnavailable)
	}
	return item, nil
}

// 明細に現在の商品名・価格を付ける。消えた商品は表示しない。
func (u *CartUsecase) buildCartResponse(ctx context.Context, userID int64) (CartResponse, error) {
	lines, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, persistenceFailure(err)
	}

	respItems := make([]CartItemResponse, 0, len(lines))
	var total int64

	for _, l := range lines {
		item, err := u.catalogRepo.FindItem(ctx, l.Ref())
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return CartResponse{}, persistenceFailure(err)
		}

		respItems = append(respItems, CartItemResponse{
			ItemKind:  l.ItemKind,
			ItemID:    l.ItemID,
			Name:      item.DisplayName(),
			Price:     item.UnitPrice(),
			Quantity:  l.Quantity,
			Available: item.Available() && item.StockQuantity() >= l.Quantity,
		})
		lineTotal, err := model.MulAmount(item.UnitPrice(), l.Quantity)
		if err == nil {
			total, err = model.AddAmounts(total, lineTotal)
		}
		if err != nil {
			return CartResponse{}, validationError("amount out of range")
		}
	}

	return CartResponse{Items: respItems, Total: total}, nil
}
