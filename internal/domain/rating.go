package domain

import "fmt"

// Grade bounds.
const (
	MinGrade = 1
	MaxGrade = 5
)

// Rating is one user's grade for one product. Inactive ratings are kept but
// excluded from the product average.
type Rating struct {
	ID        string `json:"id"`
	Grade     int    `json:"grade"`
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	IsActive  bool   `json:"is_active"`
}

// ValidateGrade checks that grade lies in [MinGrade, MaxGrade].
func ValidateGrade(grade int) error {
	if grade < MinGrade || grade > MaxGrade {
		return fmt.Errorf("grade must be between %d and %d, got %d", MinGrade, MaxGrade, grade)
	}
	return nil
}
