package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := map[string]Symbol{
		"BTC/USDT":       {Base: "BTC", Quote: "USDT"},
		"btc-usdt":       {Base: "BTC", Quote: "USDT"},
		"BTC-USDT-SWAP":  {Base: "BTC", Quote: "USDT"},
		"BTCUSDT":        {Base: "BTC", Quote: "USDT"},
		"SOL/USDC:USDC":  {Base: "SOL", Quote: "USDC"},
		"ETHBTC":         {Base: "ETH", Quote: "BTC"},
		"NOQUOTEANYWHER": {},
		"":               {},
	}
	for input, want := range cases {
		assert.Equal(t, want, Parse(input), "input %q", input)
	}
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{"BTC/USDT", "btc-usdt", "ETHUSDT", "HYPE", " "})
	assert.Equal(t, []string{"BTC/USDT", "ETH/USDT", "HYPE"}, got)
}
