package domain

// User is a registered account. PasswordHash never leaves the service.
type User struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	IsActive     bool   `json:"is_active"`
	IsAdmin      bool   `json:"is_admin"`
	IsSupplier   bool   `json:"is_supplier"`
	IsCustomer   bool   `json:"is_customer"`
}

// Principal returns the identity carried in tokens issued for u.
func (u *User) Principal() Principal {
	return Principal{
		ID:         u.ID,
		Username:   u.Username,
		IsAdmin:    u.IsAdmin,
		IsSupplier: u.IsSupplier,
		IsCustomer: u.IsCustomer,
	}
}
