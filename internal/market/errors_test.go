package market

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAPIErrorTransient(t *testing.T) {
	assert.True(t, (&APIError{Status: 502}).Transient())
	assert.True(t, (&APIError{Status: 500}).Transient())
	assert.False(t, (&APIError{Status: 404}).Transient())
	assert.False(t, (&APIError{Status: 200, Code: "51001"}).Transient())
}

func TestFetchErrorUnwrapsChain(t *testing.T) {
	inner := &RateLimitError{Exchange: ExchangeOKX, RetryAfter: 2 * time.Second}
	err := &FetchError{Symbol: "BTC-USDT", Err: fmt.Errorf("page 3: %w", inner)}

	var rle *RateLimitError
	assert.ErrorAs(t, err, &rle)
	assert.Equal(t, 2*time.Second, rle.RetryAfter)
	assert.Contains(t, err.Error(), "BTC-USDT")
}

func TestTimeoutErrorWrapsDeadline(t *testing.T) {
	err := &TimeoutError{Symbol: "ETH-USDT", Err: errors.New("context deadline exceeded")}
	assert.Contains(t, err.Error(), "ETH-USDT")
	assert.NotNil(t, errors.Unwrap(err))
}
