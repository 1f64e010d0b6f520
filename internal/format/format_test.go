package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAmount(t *testing.T) {
	assert.Equal(t, "5,000", Amount(5000))
	assert.Equal(t, "100,000", Amount(100000))
	assert.Equal(t, "12.5", Amount(12.5))
	assert.Equal(t, "0", Amount(0))
}

func TestPrice(t *testing.T) {
	assert.Equal(t, "฿1,200", Price(1200))
}

func TestCounter(t *testing.T) {
	assert.Equal(t, "3/50", Counter(3, 50))
}
