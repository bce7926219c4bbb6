package response

import (
	"checkout-core/internal/usecase/queries"
)

// Cart and price views are already shaped for the wire.
type CartResponse = queries.CartView

type PriceResponse = queries.PriceView

func FromCartView(v *queries.CartView) *CartResponse {
	if v.Lines == nil {
		v.Lines = []queries.CartLineView{}
	}
	return v
}
