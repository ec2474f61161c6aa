package domain

import "time"

// Customer is a shop customer record.
type Customer struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	Preferences     string    `json:"preferences,omitempty"`
	PurchaseHistory []string  `json:"purchase_history"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Matches reports whether term occurs in the name or email, ignoring case.
func (c *Customer) Matches(term string) bool {
	return containsFold(c.Name, term) || containsFold(c.Email, term)
}
