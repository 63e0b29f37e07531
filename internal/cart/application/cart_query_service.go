package application

import (
	"context"

	"github.com/wyfcoding/pizzashop/internal/cart/domain"
	pricing "github.com/wyfcoding/pizzashop/internal/pricing/domain"
)

// CartQueryService 购物车查询服务，每次读取都按实时目录重新计价
type CartQueryService struct {
	repo    domain.CartRepository
	catalog domain.CatalogReader
}

// NewCartQueryService 创建购物车查询服务实例
func NewCartQueryService(repo domain.CartRepository, catalog domain.CatalogReader) *CartQueryService {
	return &CartQueryService{repo: repo, catalog: catalog}
}

// GetCart 获取（必要时创建）用户购物车并计价
func (s *CartQueryService) GetCart(ctx context.Context, userID string) (*CartView, error) {
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// PriceForCheckout 锁定购物车行并计价，供下单在同一事务中使用。
// 用户没有购物车时返回 nil
func (s *CartQueryService) PriceForCheckout(ctx context.Context, userID string) (*PricedCart, error) {
	cart, err := s.repo.LockByUserID(ctx, userID)
	if err != nil || cart == nil {
		return nil, err
	}
	_, quote, err := s.price(ctx, cart)
	if err != nil {
		return nil, err
	}
	return &PricedCart{Cart: cart, Quote: quote}, nil
}

func (s *CartQueryService) price(ctx context.Context, cart *domain.Cart) (pricing.Catalog, pricing.Quote, error) {
	items := cart.PricingItems()
	pizzaIDs, toppingIDs := pricing.ReferencedIDs(items)
	cat, err := s.catalog.LoadPricingCatalog(ctx, pizzaIDs, toppingIDs)
	if err != nil {
		return pricing.Catalog{}, pricing.Quote{}, err
	}
	return cat, pricing.PriceCart(cat, items), nil
}

func (s *CartQueryService) view(ctx context.Context, cart *domain.Cart) (*CartView, error) {
	cat, quote, err := s.price(ctx, cart)
	if err != nil {
		return nil, err
	}
	return newCartView(cart, cat, quote), nil
}
