// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"time"

	"matchpet-workers/internal/common/config"
	"matchpet-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Backoff drives connection retries at start-up.
type Backoff struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

var DefaultBackoff = Backoff{MaxAttempts: 10, InitialDelay: 2 * time.Second, MaxDelay: 30 * time.Second}

// Retry runs op until it succeeds, the attempts run out, or ctx ends. The
// delay doubles after each failure up to MaxDelay.
func Retry(ctx context.Context, b Backoff, log logger.Logger, name string, op func(context.Context) error) error {
	delay := b.InitialDelay
	var err error
	for attempt := 1; attempt <= b.MaxAttempts; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if attempt == b.MaxAttempts {
			break
		}
		log.Warn(name+" failed, retrying", map[string]interface{}{
			"error":       err,
			"attempt":     attempt,
			"maxAttempts": b.MaxAttempts,
			"nextRetryIn": delay.String(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", name, attempt, ctx.Err())
		}
		delay *= 2
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, b.MaxAttempts, err)
}

// Connect builds a Zeebe client and confirms the gateway answers a topology request.
func Connect(ctx context.Context, cfg config.CamundaConfig, b Backoff, log logger.Logger) (zbc.Client, error) {
	var client zbc.Client
	err := Retry(ctx, b, log, "zeebe connection", func(ctx context.Context) error {
		c, err := zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.BrokerAddress,
			UsePlaintextConnection: !cfg.UseTLS,
		})
		if err != nil {
			return err
		}
		reqCtx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.RequestTimeout))
		defer cancel()
		if _, err := c.NewTopologyCommand().Send(reqCtx); err != nil {
			_ = c.Close()
			return err
		}
		client = c
		return nil
	})
	return client, err
}
