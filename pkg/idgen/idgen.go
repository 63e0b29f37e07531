// Package idgen 生成面向用户的订单号
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator 订单号生成器
type Generator interface {
	NextOrderNumber() string
}

// Snowflake 基于雪花算法的生成器，同一节点内单调递增
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake 创建生成器，node 取值 [0, 1023]
func NewSnowflake(node int64) (*Snowflake, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node %d: %w", node, err)
	}
	return &Snowflake{node: n}, nil
}

// NextOrderNumber 返回十进制字符串形式的订单号
func (s *Snowflake) NextOrderNumber() string {
	return s.node.Generate().String()
}
