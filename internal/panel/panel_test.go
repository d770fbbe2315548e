package panel

import (
	"errors"
	"fmt"
	"testing"

	"arbpanel/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestIdentityPath(t *testing.T) {
	assert.Equal(t, "/api/logs/BTC/BTC-USD", IdentityPath(PathLogs, models.Identity{Lighter: "BTC", Extended: "BTC-USD"}))
	assert.Equal(t, "/api/live_stream/ETH", IdentityPath(PathLiveStream, models.Identity{Lighter: "ETH"}))
	assert.Equal(t, "/api/logs/A%2FB/C", IdentityPath(PathLogs, models.Identity{Lighter: "A/B", Extended: "C"}))
}

func TestIdentityQuery(t *testing.T) {
	assert.Equal(t, "symbolE=ETH-USD&symbolL=ETH", IdentityQuery(models.Identity{Lighter: "ETH", Extended: "ETH-USD"}).Encode())
	assert.Equal(t, "symbolL=ETH", IdentityQuery(models.Identity{Lighter: "ETH"}).Encode())
}

func TestAggregatePaths(t *testing.T) {
	assert.Equal(t, "/get_daily_lig", DailyPath(VenueLighter))
	assert.Equal(t, "/get_ext", TradesPath(VenueExtended, TradeViewRecent))
	assert.Equal(t, "/get_trades_fifo_lig", TradesPath(VenueLighter, TradeViewFIFO))
	assert.Equal(t, "/get_trades_cycle_ext", TradesPath(VenueExtended, TradeViewCycle))
}

func TestIsTransportFailure(t *testing.T) {
	assert.True(t, IsTransportFailure(fmt.Errorf("load: %w", &StatusError{Code: 500})))
	assert.True(t, IsTransportFailure(&TransportError{Err: errors.New("refused")}))
	assert.False(t, IsTransportFailure(ErrUnauthorized))
	assert.False(t, IsTransportFailure(nil))
}
