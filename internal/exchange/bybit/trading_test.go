package bybit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quangdle/crypto-signal-bot/pkg/types"
)

func TestSubmissionStatus(t *testing.T) {
	assert.Equal(t, types.OrderStatusFilled, submissionStatus(types.OrderTypeMarket))
	// Limit orders may rest on the book; acceptance is not a fill.
	assert.Equal(t, types.OrderStatusSubmitted, submissionStatus(types.OrderTypeLimit))
}

func TestFormatQty(t *testing.T) {
	assert.Equal(t, "0.001", formatQty(0.001))
	assert.Equal(t, "1", formatQty(1))
	assert.Equal(t, "110.5", formatQty(110.5))
}
