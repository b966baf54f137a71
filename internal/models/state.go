package models

// UserState keeps the per-user conversational step between updates.
// It lives in the state repository (Redis with in-memory fallback),
// never in package-level maps, so concurrent handlers stay independent.
type UserState struct {
	UserID int64                  `json:"user_id"`
	Step   string                 `json:"step"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// StateDate is the Data key holding the selected calendar date.
const StateDate = "date"
