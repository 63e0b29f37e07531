package application

import (
	"context"

	"github.com/wyfcoding/pizzashop/internal/catalog/domain"
	pricing "github.com/wyfcoding/pizzashop/internal/pricing/domain"
	"github.com/wyfcoding/pizzashop/pkg/errorx"
)

// CatalogQueryService 商品目录查询服务
type CatalogQueryService struct {
	pizzas   domain.PizzaRepository
	toppings domain.ToppingRepository
}

// NewCatalogQueryService 创建商品目录查询服务实例
func NewCatalogQueryService(
	pizzas domain.PizzaRepository,
	toppings domain.ToppingRepository,
) *CatalogQueryService {
	return &CatalogQueryService{
		pizzas:   pizzas,
		toppings: toppings,
	}
}

// GetPizza 根据 ID 获取披萨
func (s *CatalogQueryService) GetPizza(ctx context.Context, id string) (*PizzaDTO, error) {
	p, err := s.pizzas.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errorx.NotFound("pizza %s not found", id)
	}
	dtos, err := s.toPizzaDTOs(ctx, []*domain.Pizza{p})
	if err != nil {
		return nil, err
	}
	return &dtos[0], nil
}

// GetPizzaBySlug 根据 slug 获取披萨
func (s *CatalogQueryService) GetPizzaBySlug(ctx context.Context, slug string) (*PizzaDTO, error) {
	p, err := s.pizzas.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errorx.NotFound("pizza %s not found", slug)
	}
	dtos, err := s.toPizzaDTOs(ctx, []*domain.Pizza{p})
	if err != nil {
		return nil, err
	}
	return &dtos[0], nil
}

// ListPizzas 列出全部披萨
func (s *CatalogQueryService) ListPizzas(ctx context.Context) ([]PizzaDTO, error) {
	pizzas, err := s.pizzas.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.toPizzaDTOs(ctx, pizzas)
}

// GetTopping 根据 ID 获取配料
func (s *CatalogQueryService) GetTopping(ctx context.Context, id string) (*ToppingDTO, error) {
	t, err := s.toppings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errorx.NotFound("topping %s not found", id)
	}
	dto := toToppingDTO(t)
	return &dto, nil
}

// ListToppings 列出全部配料
func (s *CatalogQueryService) ListToppings(ctx context.Context) ([]ToppingDTO, error) {
	toppings, err := s.toppings.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ToppingDTO, 0, len(toppings))
	for _, t := range toppings {
		out = append(out, toToppingDTO(t))
	}
	return out, nil
}

// LoadPricingCatalog 实时加载计价所需的目录：给定披萨及其默认配料，再加上给定的配料。
// 不存在或已删除的 id 不会出现在结果中
func (s *CatalogQueryService) LoadPricingCatalog(ctx context.Context, pizzaIDs, toppingIDs []string) (pricing.Catalog, error) {
	pizzas, err := s.pizzas.ListByIDs(ctx, pizzaIDs)
	if err != nil {
		return pricing.Catalog{}, err
	}
	return s.buildCatalog(ctx, pizzas, toppingIDs)
}

func (s *CatalogQueryService) buildCatalog(ctx context.Context, pizzas []*domain.Pizza, extraToppingIDs []string) (pricing.Catalog, error) {
	seen := make(map[string]struct{})
	ids := make([]string, 0, len(extraToppingIDs))
	add := func(id string) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, p := range pizzas {
		for _, id := range p.DefaultToppingIDs {
			add(id)
		}
	}
	for _, id := range extraToppingIDs {
		add(id)
	}

	toppings, err := s.toppings.ListByIDs(ctx, ids)
	if err != nil {
		return pricing.Catalog{}, err
	}

	pp := make([]pricing.Pizza, 0, len(pizzas))
	for _, p := range pizzas {
		pp = append(pp, p.ToPricing())
	}
	tp := make([]pricing.Topping, 0, len(toppings))
	for _, t := range toppings {
		tp = append(tp, t.ToPricing())
	}
	return pricing.NewCatalog(pp, tp), nil
}

func (s *CatalogQueryService) toPizzaDTOs(ctx context.Context, pizzas []*domain.Pizza) ([]PizzaDTO, error) {
	cat, err := s.buildCatalog(ctx, pizzas, nil)
	if err != nil {
		return nil, err
	}

	out := make([]PizzaDTO, 0, len(pizzas))
	for _, p := range pizzas {
		dto := PizzaDTO{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			Slug:         p.Slug,
			BasePrice:    p.BasePrice,
			ComputedCost: pricing.BaseCost(cat, p.ID),
			ImageURL:     p.ImageURL,
			Toppings:     make([]ToppingDTO, 0, len(p.DefaultToppingIDs)),
			CreatedAt:    p.CreatedAt,
			UpdatedAt:    p.UpdatedAt,
		}
		for _, id := range p.DefaultToppingIDs {
			if t, ok := cat.Topping(id); ok {
				dto.Toppings = append(dto.Toppings, ToppingDTO{ID: t.ID, Name: t.Name, Cost: t.Cost})
			}
		}
		out = append(out, dto)
	}
	return out, nil
}
