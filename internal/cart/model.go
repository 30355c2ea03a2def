package cart

import "time"

type CartItem struct {
	ID        uint
	UserID    uint
	ProductID uint
	OptionID  *uint
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
