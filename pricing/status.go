package pricing

import (
	"errors"

	"pos-service/models"
)

// ErrNoBillableItems is returned when every item on an order is VOID.
var ErrNoBillableItems = errors.New("order has no billable items")

// DeriveStatus maps item statuses to the kitchen-progress status of an order.
// It never returns FOR_PAYMENT, PAID or CANCELLED; those are set by explicit
// actions.
//
// VOID items are ignored. OPEN means every billable item is NEW, READY means
// every billable item is READY or SERVED, and anything in between is
// IN_KITCHEN.
func DeriveStatus(items []models.OrderItem) (models.OrderStatus, error) {
	var billable, fresh, done int
	for _, it := range items {
		switch it.Status {
		case models.ItemStatusVoid:
			continue
		case models.ItemStatusNew:
			fresh++
		case models.ItemStatusReady, models.ItemStatusServed:
			done++
		}
		billable++
	}

	switch {
	case billable == 0:
		return "", ErrNoBillableItems
	case fresh == billable:
		return models.OrderStatusOpen, nil
	case done == billable:
		return models.OrderStatusReady, nil
	default:
		return models.OrderStatusInKitchen, nil
	}
}
