// Package client 外部文案服务客户端
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"github.com/wyfcoding/pizzashop/pkg/logger"
)

// DescriptionClient 从文本服务（如 lorem 生成器）拉取一段占位描述。
// 外层有熔断器，服务持续失败时快速返回错误
type DescriptionClient struct {
	http *resty.Client
	cb   *gobreaker.CircuitBreaker
	url  string
}

// NewDescriptionClient 创建客户端
func NewDescriptionClient(url string, timeout time.Duration) *DescriptionClient {
	httpClient := resty.New().
		SetTimeout(timeout).
		SetRetryCount(1).
		SetHeader("Accept", "text/plain")

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "catalog-description",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	return &DescriptionClient{http: httpClient, cb: cb, url: url}
}

// Fetch 拉取描述文本
func (c *DescriptionClient) Fetch(ctx context.Context) (string, error) {
	out, err := c.cb.Execute(func() (any, error) {
		resp, err := c.http.R().SetContext(ctx).Get(c.url)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("description source returned %d", resp.StatusCode())
		}
		return strings.TrimSpace(resp.String()), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to fetch description: %w", err)
	}
	return out.(string), nil
}
