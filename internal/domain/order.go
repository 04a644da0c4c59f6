package domain

import "time"

// Order is a pending or paid customer order. Orders are created unpaid at
// checkout; Paid flips false to true exactly once, server-side, when the
// gateway confirms payment. TxnID is the sole handle used to resume or retry
// payment across the gateway redirect.
type Order struct {
	ID              string        `json:"id"`
	TxnID           string        `json:"txnid"`
	UserID          string        `json:"user_id"`
	Lines           []ProductLine `json:"lines"`
	TotalPrice      int64         `json:"total_price"`
	Currency        string        `json:"currency"`
	ShippingAddress Address       `json:"shipping_address"`
	Paid            bool          `json:"paid"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// ProductLine is one ordered product with its quantity and the unit price
// snapshotted at order creation.
type ProductLine struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// Address is a shipping address.
type Address struct {
	FullName    string `json:"full_name"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state"`
	PostalCode  string `json:"postal_code"`
	Country     string `json:"country"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
}

// PendingOrderRef is the durable reference persisted after pending-order
// creation, under a key independent of the cart key. It is what survives the
// redirect round-trip when everything else about the checkout is gone.
type PendingOrderRef struct {
	TxnID      string `json:"txnid"`
	TotalPrice int64  `json:"total_price"`
}
