package order

import (
	"github.com/noah-isme/toko-storefront/internal/store"
)

func orderStatusRank(status string) int {
	switch status {
	case store.OrderPending:
		return 0
	case store.OrderConfirmed:
		return 1
	case store.OrderPreparing:
		return 2
	case store.OrderShipped:
		return 3
	case store.OrderDelivered:
		return 4
	case store.OrderCancelled:
		return -1
	default:
		return -2
	}
}

// canTransition allows forward moves and cancellation of undelivered orders.
// Delivered and cancelled orders are final.
func canTransition(from, to string) bool {
	if from == to {
		return true
	}
	fromRank, toRank := orderStatusRank(from), orderStatusRank(to)
	if fromRank < 0 || toRank == -2 || from == store.OrderDelivered {
		return false
	}
	if to == store.OrderCancelled {
		return true
	}
	return toRank > fromRank
}

// fulfillmentFor mirrors an order status onto the fulfillment status when the
// patch leaves the latter out.
func fulfillmentFor(status string) (string, bool) {
	switch status {
	case store.OrderPreparing:
		return store.FulfillmentProcessing, true
	case store.OrderShipped:
		return store.FulfillmentShipped, true
	case store.OrderDelivered:
		return store.FulfillmentDelivered, true
	case store.OrderCancelled:
		return store.FulfillmentCancelled, true
	}
	return "", false
}
