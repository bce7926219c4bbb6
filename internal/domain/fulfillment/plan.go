package fulfillment

import (
	"time"

	"checkout-core/internal/domain/order"

	"github.com/google/uuid"
)

// Each step fires at share/7 of the tier duration after payment.
type stepTemplate struct {
	target   order.Status
	share    int
	location string
	note     string
}

const shareDenominator = 7

var steps = []stepTemplate{
	{order.StatusShipped, 3, "Main Warehouse", "Order has been packed and shipped."},
	{order.StatusOutForDelivery, 5, "Local Hub", "Courier is on the way."},
	{order.StatusDelivered, 7, "Customer Address", "Order delivered to customer."},
}

// Job is one durable scheduled transition.
type Job struct {
	ID       uuid.UUID
	OrderID  uuid.UUID
	Target   order.Status
	Location string
	Note     string
	FireAt   time.Time
}

// Plan lays out the delivery transitions for an order paid at paidAt.
func Plan(orderID uuid.UUID, tier Tier, paidAt time.Time, dayLength time.Duration) []Job {
	total := time.Duration(tier.Days) * dayLength
	jobs := make([]Job, 0, len(steps))
	for _, s := range steps {
		offset := total * time.Duration(s.share) / shareDenominator
		jobs = append(jobs, Job{
			ID:       uuid.New(),
			OrderID:  orderID,
			Target:   s.target,
			Location: s.location,
			Note:     s.note,
			FireAt:   paidAt.Add(offset),
		})
	}
	return jobs
}
