package dto

type CreateSupplierRequest struct {
	Name         string  `json:"name" validate:"required"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone        *string `json:"phone,omitempty"`
	LeadTimeDays int     `json:"lead_time_days" validate:"min=0"`
}

type UpdateSupplierRequest struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone        *string `json:"phone,omitempty"`
	LeadTimeDays *int    `json:"lead_time_days,omitempty" validate:"omitempty,min=0"`
	Active       *bool   `json:"active,omitempty"`
}

type SupplierResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	LeadTimeDays int     `json:"lead_time_days"`
	Active       bool    `json:"active"`
	CreatedAt    string  `json:"created_at"`
}
