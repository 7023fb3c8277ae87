package domain

import (
	"fmt"
)

// ValidationError reports a missing or malformed checkout field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a missing buyer, product or offer.
// ItemIndex is the position of the offending checkout item, -1 when the
// error is not tied to an item.
type NotFoundError struct {
	Entity    string
	ID        string
	ItemIndex int
}

func (e *NotFoundError) Error() string {
	if e.ItemIndex >= 0 {
		return fmt.Sprintf("items[%d]: %s[%s] not found", e.ItemIndex, e.Entity, e.ID)
	}
	return fmt.Sprintf("%s[%s] not found", e.Entity, e.ID)
}

type InsufficientStockError struct {
	ItemIndex int
	ProductID string
	SellerID  string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("items[%d]: insufficient stock for product[%s] seller[%s]: requested %d, available %d",
		e.ItemIndex, e.ProductID, e.SellerID, e.Requested, e.Available)
}

// InventoryUpdateError means a stock decrement lost a race after validation passed.
type InventoryUpdateError struct {
	ProductID string
	SellerID  string
	Err       error
}

func (e *InventoryUpdateError) Error() string {
	return fmt.Sprintf("inventory update failed for product[%s] seller[%s]: %v", e.ProductID, e.SellerID, e.Err)
}

func (e *InventoryUpdateError) Unwrap() error {
	return e.Err
}

type StatusTransitionError struct {
	OrderID    string
	SuborderID string
	Status     string
	Reason     string
	Err        error
}

func (e *StatusTransitionError) Error() string {
	msg := fmt.Sprintf("order[%s] suborder[%s] -> %q: %s", e.OrderID, e.SuborderID, e.Status, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StatusTransitionError) Unwrap() error {
	return e.Err
}
