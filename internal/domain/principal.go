package domain

// Principal is the authenticated caller as established by the bearer token.
// The role flags are independent; a user may hold any combination.
type Principal struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	IsAdmin    bool   `json:"is_admin"`
	IsSupplier bool   `json:"is_supplier"`
	IsCustomer bool   `json:"is_customer"`
}

// CanReview reports whether p may submit reviews.
func (p *Principal) CanReview() bool {
	return p != nil && p.IsCustomer
}

// CanModerateReviews reports whether p may deactivate reviews.
func (p *Principal) CanModerateReviews() bool {
	return p != nil && p.IsAdmin
}

// CanManageCategories reports whether p may create, update or delete categories.
func (p *Principal) CanManageCategories() bool {
	return p != nil && p.IsAdmin
}

// CanManageProducts reports whether p may create products.
func (p *Principal) CanManageProducts() bool {
	return p != nil && (p.IsAdmin || p.IsSupplier)
}
