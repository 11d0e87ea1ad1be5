package redisx

import "time"

const (
	// Cached order status: order_status:{order_type}:{order_id} -> {"status": "..."}
	KeyOrderStatus = "order_status:%s:%s"

	// Idempotency on order creation: idem:order:create:{client_ref} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLIdempotency = 24 * time.Hour
)
