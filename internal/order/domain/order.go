// Package domain 包含订单的领域模型：状态流转规则与下单时冻结的快照
package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pizzashop/pkg/errorx"
)

// Status 订单状态
type Status int

const (
	StatusNew Status = iota
	StatusPreparing
	StatusOutForDelivery
	StatusCompleted
)

var statusNames = [...]string{"New", "Preparing", "OutForDelivery", "Completed"}

func (s Status) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// Valid 是否为已定义的状态
func (s Status) Valid() bool {
	return s >= StatusNew && s <= StatusCompleted
}

// ParseStatus 按名称（不区分大小写）或数值解析状态
func ParseStatus(v string) (Status, error) {
	v = strings.TrimSpace(v)
	for i, name := range statusNames {
		if strings.EqualFold(v, name) {
			return Status(i), nil
		}
	}
	if n, err := strconv.Atoi(v); err == nil && Status(n).Valid() {
		return Status(n), nil
	}
	return 0, errorx.InvalidInput("unknown order status %q", v)
}

// Order 订单。创建后条目不可变，取消为软删除
type Order struct {
	ID string
	// 面向用户的订单号
	OrderNumber string
	UserID      string
	Status      Status
	TotalAmount decimal.Decimal
	Items       []OrderItem
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderItem 下单时冻结的条目
type OrderItem struct {
	ID        string
	OrderID   string
	PizzaName string
	// 单价 = 底价 + 生效配料，不含数量
	UnitPrice decimal.Decimal
	Quantity  int
	Toppings  []ToppingSnapshot
}

// ItemTotal 条目小计
func (i OrderItem) ItemTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CanBeCancelled 仅 New 与 Preparing 状态可取消
func (o *Order) CanBeCancelled() bool {
	return o.Status == StatusNew || o.Status == StatusPreparing
}

// Summary 列表视图
type Summary struct {
	ID          string
	OrderNumber string
	UserID      string
	Status      Status
	TotalAmount decimal.Decimal
	ItemCount   int
	CreatedAt   time.Time
}

// ListFilter 管理端列表过滤条件，零值表示不过滤
type ListFilter struct {
	Status *Status
	UserID string
}
