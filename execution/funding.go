package execution

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// awaitFunding polls the wallet balance at a fixed interval until it
// reaches the minimum or the attempt budget runs out. Returns true when
// the wallet is funded; polling stops at the first sufficient reading.
func (c *Coordinator) awaitFunding(ctx context.Context, forumID, wallet string) bool {
	for attempt := 1; attempt <= c.cfg.FundingAttempts; attempt++ {
		if err := c.clock.Sleep(ctx, c.cfg.FundingInterval); err != nil {
			c.logger.Info("funding wait cancelled",
				zap.String("wallet", wallet), zap.Error(err))
			return false
		}

		funded, err := c.checkBalance(ctx, wallet)
		if err != nil {
			c.logger.Debug("funding poll failed",
				zap.String("wallet", wallet), zap.Int("attempt", attempt), zap.Error(err))
			continue
		}
		if funded {
			c.postMessage(ctx, forumID, fmt.Sprintf(
				"Funds received on wallet %s, proceeding with execution.", wallet))
			return true
		}
	}
	c.logger.Warn("funding wait exhausted", zap.String("wallet", wallet),
		zap.Int("attempts", c.cfg.FundingAttempts))
	return false
}
