package domain

import "time"

// MinOrderQuantity is the floor enforced on every cart line. The storefront
// sells wholesale rugs and decor; single-piece orders are not accepted.
const MinOrderQuantity = 25

// Variant captures the optional attributes distinguishing one listing of a
// product from another.
type Variant struct {
	Size     string `json:"size,omitempty"`
	Color    string `json:"color,omitempty"`
	Material string `json:"material,omitempty"`
}

// CartItem is a single line in the cart.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	UnitPrice int64   `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Category  string  `json:"category,omitempty"`
	Variant   Variant `json:"variant,omitempty"`
}

// Cart is the authoritative cart for one user: an ordered collection of
// items, unique by product ID, fully JSON-serializable.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	Currency  string     `json:"currency"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewCart creates an empty cart for the given user.
func NewCart(userID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		UserID:    userID,
		Items:     []CartItem{},
		Currency:  "INR",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ClampQuantity floors a requested quantity at the minimum order quantity.
func ClampQuantity(requested int) int {
	if requested < MinOrderQuantity {
		return MinOrderQuantity
	}
	return requested
}

// AddItem inserts the item with quantity max(MOQ, requested). If a line for
// the same product already exists, the quantities merge additively and the
// result is re-floored: max(MOQ, existing + max(MOQ, requested)).
func (c *Cart) AddItem(item CartItem, requestedQty int) {
	applied := ClampQuantity(requestedQty)

	if i := c.findIndex(item.ProductID); i >= 0 {
		c.Items[i].Quantity = ClampQuantity(c.Items[i].Quantity + applied)
		c.Items[i].Title = item.Title
		c.Items[i].UnitPrice = item.UnitPrice
		c.Items[i].Category = item.Category
		c.Items[i].Variant = item.Variant
	} else {
		item.Quantity = applied
		c.Items = append(c.Items, item)
	}

	c.UpdatedAt = time.Now().UTC()
}

// SetQuantity clamps newQty to max(MOQ, newQty) and applies it to the matching
// line. Returns false if no line matches.
func (c *Cart) SetQuantity(productID string, newQty int) bool {
	i := c.findIndex(productID)
	if i < 0 {
		return false
	}

	c.Items[i].Quantity = ClampQuantity(newQty)

	// Drop the line if the resulting quantity is non-positive. The clamp
	// above floors the quantity at MinOrderQuantity, so this branch cannot
	// fire; it is kept as-is because it is unclear whether the drop was
	// meant to survive the bulk-only floor. See the unreachability test.
	if c.Items[i].Quantity <= 0 {
		c.Items = append(c.Items[:i], c.Items[i+1:]...)
	}

	c.UpdatedAt = time.Now().UTC()
	return true
}

// RemoveItem deletes the matching line unconditionally. Returns false if no
// line matches.
func (c *Cart) RemoveItem(productID string) bool {
	i := c.findIndex(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.UpdatedAt = time.Now().UTC()
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.UpdatedAt = time.Now().UTC()
}

// ItemCount returns the sum of line quantities.
func (c *Cart) ItemCount() int {
	var count int
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// Subtotal returns the sum of unit price times quantity across all lines,
// in paise.
func (c *Cart) Subtotal() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) findIndex(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
