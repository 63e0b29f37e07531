package application

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pizzashop/internal/catalog/domain"
	"github.com/wyfcoding/pizzashop/pkg/db"
	"github.com/wyfcoding/pizzashop/pkg/errorx"
	"github.com/wyfcoding/pizzashop/pkg/logger"
	"github.com/wyfcoding/pizzashop/pkg/utils"
)

// SavePizzaCommand 创建或更新披萨命令
type SavePizzaCommand struct {
	Name        string          `validate:"required,max=100"`
	Description string          `validate:"max=2000"`
	BasePrice   decimal.Decimal `validate:"-"`
	ImageURL    string          `validate:"omitempty,url,max=512"`
	ToppingIDs  []string
}

// SaveToppingCommand 创建或更新配料命令
type SaveToppingCommand struct {
	Name        string          `validate:"required,max=100"`
	Description string          `validate:"max=2000"`
	Cost        decimal.Decimal `validate:"-"`
}

// CatalogCommandService 商品目录命令服务
type CatalogCommandService struct {
	pizzas      domain.PizzaRepository
	toppings    domain.ToppingRepository
	publisher   domain.EventPublisher
	tx          db.Transactor
	description domain.DescriptionSource
	validate    *validator.Validate
}

// NewCatalogCommandService 创建商品目录命令服务实例，description 可为空
func NewCatalogCommandService(
	pizzas domain.PizzaRepository,
	toppings domain.ToppingRepository,
	publisher domain.EventPublisher,
	tx db.Transactor,
	description domain.DescriptionSource,
) *CatalogCommandService {
	return &CatalogCommandService{
		pizzas:      pizzas,
		toppings:    toppings,
		publisher:   publisher,
		tx:          tx,
		description: description,
		validate:    validator.New(),
	}
}

func (s *CatalogCommandService) validatePizza(cmd SavePizzaCommand) error {
	if err := s.validate.Struct(cmd); err != nil {
		return errorx.InvalidInput("invalid pizza: %v", err)
	}
	if cmd.BasePrice.IsNegative() {
		return errorx.InvalidInput("base price must not be negative")
	}
	if !wholeCents(cmd.BasePrice) {
		return errorx.InvalidInput("base price must have at most 2 decimal places")
	}
	return nil
}

// wholeCents 金额须精确到分，快照按两位小数输出
func wholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// knownToppings 过滤掉目录中不存在的配料 id，保持顺序并去重
func (s *CatalogCommandService) knownToppings(ctx context.Context, ids []string) ([]string, error) {
	found, err := s.toppings.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	exists := make(map[string]struct{}, len(found))
	for _, t := range found {
		exists[t.ID] = struct{}{}
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := exists[id]; ok {
			out = append(out, id)
			delete(exists, id)
		}
	}
	return out, nil
}

func (s *CatalogCommandService) uniqueSlug(ctx context.Context, name, id string) (string, error) {
	base := utils.Slugify(name)
	if base == "" {
		base = "pizza"
	}
	taken, err := s.pizzas.SlugExists(ctx, base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}
	return fmt.Sprintf("%s-%s", base, id[:8]), nil
}

func (s *CatalogCommandService) fillDescription(ctx context.Context, desc string) string {
	if desc != "" || s.description == nil {
		return desc
	}
	text, err := s.description.Fetch(ctx)
	if err != nil {
		logger.Warn(ctx, "description source unavailable", "error", err)
		return ""
	}
	return text
}

// CreatePizza 创建披萨
func (s *CatalogCommandService) CreatePizza(ctx context.Context, cmd SavePizzaCommand) (string, error) {
	if err := s.validatePizza(cmd); err != nil {
		return "", err
	}

	pizza := &domain.Pizza{
		ID:          uuid.NewString(),
		Name:        cmd.Name,
		Description: s.fillDescription(ctx, cmd.Description),
		BasePrice:   cmd.BasePrice,
		ImageURL:    cmd.ImageURL,
	}

	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		ids, err := s.knownToppings(ctx, cmd.ToppingIDs)
		if err != nil {
			return err
		}
		pizza.DefaultToppingIDs = ids

		if pizza.Slug, err = s.uniqueSlug(ctx, pizza.Name, pizza.ID); err != nil {
			return err
		}
		if err := s.pizzas.Save(ctx, pizza); err != nil {
			return err
		}
		return s.publishPizzaSaved(ctx, pizza, true)
	})
	if err != nil {
		return "", err
	}

	logger.Info(ctx, "pizza created", "pizza_id", pizza.ID, "slug", pizza.Slug)
	return pizza.ID, nil
}

// UpdatePizza 更新披萨，默认配料整体替换，名称变化时重新生成 slug
func (s *CatalogCommandService) UpdatePizza(ctx context.Context, id string, cmd SavePizzaCommand) error {
	if err := s.validatePizza(cmd); err != nil {
		return err
	}

	return s.tx.Transaction(ctx, func(ctx context.Context) error {
		pizza, err := s.pizzas.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if pizza == nil {
			return errorx.NotFound("pizza %s not found", id)
		}

		if utils.Slugify(cmd.Name) != pizza.Slug {
			if pizza.Slug, err = s.uniqueSlug(ctx, cmd.Name, pizza.ID); err != nil {
				return err
			}
		}
		if pizza.DefaultToppingIDs, err = s.knownToppings(ctx, cmd.ToppingIDs); err != nil {
			return err
		}
		pizza.Name = cmd.Name
		pizza.Description = cmd.Description
		pizza.BasePrice = cmd.BasePrice
		pizza.ImageURL = cmd.ImageURL

		if err := s.pizzas.Save(ctx, pizza); err != nil {
			return err
		}
		return s.publishPizzaSaved(ctx, pizza, false)
	})
}

// DeletePizza 软删除披萨。已在购物车中的该披萨此后按缺失处理
func (s *CatalogCommandService) DeletePizza(ctx context.Context, id string) error {
	return s.tx.Transaction(ctx, func(ctx context.Context) error {
		ok, err := s.pizzas.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errorx.NotFound("pizza %s not found", id)
		}
		return s.publisher.Publish(ctx, domain.TopicPizzaDeleted, id, domain.PizzaDeletedEvent{
			PizzaID:   id,
			Timestamp: time.Now().UTC(),
		})
	})
}

func (s *CatalogCommandService) publishPizzaSaved(ctx context.Context, p *domain.Pizza, created bool) error {
	return s.publisher.Publish(ctx, domain.TopicPizzaSaved, p.ID, domain.PizzaSavedEvent{
		PizzaID:           p.ID,
		Name:              p.Name,
		Slug:              p.Slug,
		BasePrice:         p.BasePrice,
		DefaultToppingIDs: p.DefaultToppingIDs,
		Created:           created,
		Timestamp:         time.Now().UTC(),
	})
}

func (s *CatalogCommandService) validateTopping(cmd SaveToppingCommand) error {
	if err := s.validate.Struct(cmd); err != nil {
		return errorx.InvalidInput("invalid topping: %v", err)
	}
	if cmd.Cost.IsNegative() {
		return errorx.InvalidInput("cost must not be negative")
	}
	if !wholeCents(cmd.Cost) {
		return errorx.InvalidInput("cost must have at most 2 decimal places")
	}
	return nil
}

// CreateTopping 创建配料
func (s *CatalogCommandService) CreateTopping(ctx context.Context, cmd SaveToppingCommand) (string, error) {
	if err := s.validateTopping(cmd); err != nil {
		return "", err
	}

	topping := &domain.Topping{
		ID:          uuid.NewString(),
		Name:        cmd.Name,
		Description: s.fillDescription(ctx, cmd.Description),
		Cost:        cmd.Cost,
	}
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		if err := s.toppings.Save(ctx, topping); err != nil {
			return err
		}
		return s.publishToppingSaved(ctx, topping, true)
	})
	if err != nil {
		return "", err
	}

	logger.Info(ctx, "topping created", "topping_id", topping.ID)
	return topping.ID, nil
}

// UpdateTopping 更新配料。购物车按新价格计价，已下订单不受影响
func (s *CatalogCommandService) UpdateTopping(ctx context.Context, id string, cmd SaveToppingCommand) error {
	if err := s.validateTopping(cmd); err != nil {
		return err
	}

	return s.tx.Transaction(ctx, func(ctx context.Context) error {
		topping, err := s.toppings.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if topping == nil {
			return errorx.NotFound("topping %s not found", id)
		}
		topping.Name = cmd.Name
		topping.Description = cmd.Description
		topping.Cost = cmd.Cost

		if err := s.toppings.Save(ctx, topping); err != nil {
			return err
		}
		return s.publishToppingSaved(ctx, topping, false)
	})
}

// DeleteTopping 软删除配料
func (s *CatalogCommandService) DeleteTopping(ctx context.Context, id string) error {
	return s.tx.Transaction(ctx, func(ctx context.Context) error {
		ok, err := s.toppings.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return errorx.NotFound("topping %s not found", id)
		}
		return s.publisher.Publish(ctx, domain.TopicToppingDeleted, id, domain.ToppingDeletedEvent{
			ToppingID: id,
			Timestamp: time.Now().UTC(),
		})
	})
}

func (s *CatalogCommandService) publishToppingSaved(ctx context.Context, t *domain.Topping, created bool) error {
	return s.publisher.Publish(ctx, domain.TopicToppingSaved, t.ID, domain.ToppingSavedEvent{
		ToppingID: t.ID,
		Name:      t.Name,
		Cost:      t.Cost,
		Created:   created,
		Timestamp: time.Now().UTC(),
	})
}
