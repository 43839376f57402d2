package alliance

import "time"

type Alliance struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	FounderID   int64     `json:"founder_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type Member struct {
	NationID  int64     `json:"id"`
	Name      string    `json:"name"`
	IsFounder bool      `json:"is_founder"`
	JoinedAt  time.Time `json:"joined_at"`
}

type Details struct {
	Alliance
	FounderName string   `json:"founder_name"`
	Members     []Member `json:"members"`
	MemberCount int      `json:"member_count"`
}

type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
