package order

// CheckoutRequest payload of checkout. Items come from the caller's cart.
// swagger:model CheckoutRequest
type CheckoutRequest struct {
	PaymentMethod PaymentMethod `json:"payment_method" binding:"required,oneof=card cash_on_delivery" example:"card"`
	ContactPhone  string        `json:"contact_phone"  binding:"required" example:"+57 300 123 4567"`
	Address       Address       `json:"address"        binding:"required"`
	Coupon        string        `json:"coupon"         example:"SAVE10"`
}

// EditStatusRequest payload of a status edit.
// swagger:model EditStatusRequest
type EditStatusRequest struct {
	Status string `json:"status" binding:"required" example:"confirmed"`
}

type ListQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

type Pagination struct {
	CurrentPage   int  `json:"currentPage"`
	Limit         int  `json:"limit"`
	NumberOfPages int  `json:"numberOfPages"`
	Next          *int `json:"next,omitempty"`
	Prev          *int `json:"prev,omitempty"`
}

type ListResult struct {
	Orders     []Order    `json:"orders"`
	Total      int        `json:"total"`
	Remaining  int        `json:"remaining"`
	Pagination Pagination `json:"paginationResult"`
}
