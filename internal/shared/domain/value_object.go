package domain

import "strings"

// ValueObject represents an immutable domain concept defined by its attributes.
type ValueObject interface {
	Equals(other ValueObject) bool
}

// CustomerID identifies a customer across bounded contexts. It is an opaque
// external reference, not validated against any customer directory here.
type CustomerID struct {
	value string
}

// NewCustomerID creates a CustomerID from a string.
func NewCustomerID(value string) CustomerID {
	return CustomerID{value: strings.TrimSpace(value)}
}

// String returns the string representation of the CustomerID.
func (c CustomerID) String() string {
	return c.value
}

// IsEmpty returns true if the CustomerID is empty.
func (c CustomerID) IsEmpty() bool {
	return c.value == ""
}

// Equals checks if two CustomerIDs are equal.
func (c CustomerID) Equals(other ValueObject) bool {
	if o, ok := other.(CustomerID); ok {
		return c.value == o.value
	}
	return false
}
