package dto

type AlertResponse struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"product_id"`
	ProductName  string  `json:"product_name,omitempty"`
	Type         string  `json:"type"`
	Status       string  `json:"status"`
	Priority     string  `json:"priority"`
	Threshold    *int    `json:"threshold,omitempty"`
	CurrentValue *int    `json:"current_value,omitempty"`
	Message      string  `json:"message"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type AlertActionRequest struct {
	Notes *string `json:"notes,omitempty"`
}
