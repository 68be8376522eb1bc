package venue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteFeed_DeliversToAllObservers(t *testing.T) {
	feed := NewQuoteFeed()

	var got1, got2 []Quote
	feed.Subscribe(func(q Quote) { got1 = append(got1, q) })
	feed.Subscribe(func(q Quote) { got2 = append(got2, q) })

	q := Quote{Symbol: "EUR_USD", Bid: 1.0999, Ask: 1.1001}
	feed.Publish(q)

	assert.Equal(t, []Quote{q}, got1)
	assert.Equal(t, []Quote{q}, got2)
}

func TestQuoteFeed_SubscribeDuringPublish(t *testing.T) {
	feed := NewQuoteFeed()

	// An observer that subscribes another observer mid-delivery must not
	// corrupt the iteration or deliver the in-flight quote to the newcomer.
	var lateCalls int
	feed.Subscribe(func(q Quote) {
		feed.Subscribe(func(Quote) { lateCalls++ })
	})

	feed.Publish(Quote{Symbol: "IBIT", Bid: 58.1, Ask: 58.2})
	assert.Equal(t, 0, lateCalls)

	feed.Publish(Quote{Symbol: "IBIT", Bid: 58.2, Ask: 58.3})
	assert.Equal(t, 1, lateCalls)
}

func TestQuoteFeed_NoObservers(t *testing.T) {
	feed := NewQuoteFeed()
	assert.NotPanics(t, func() {
		feed.Publish(Quote{Symbol: "X", Bid: 1, Ask: 2})
	})
}
