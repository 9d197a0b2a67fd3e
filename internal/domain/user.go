package domain

import "time"

// DefaultTariff is assigned to new users when the settings store carries no
// tariff entry.
const DefaultTariff = 1

// User represents a chat user profile stored in the database.
type User struct {
	UserID           int64     `json:"user_id"`
	DisplayName      string    `json:"display_name"`
	AccountType      string    `json:"account_type"`
	LanguageCode     string    `json:"language_code"`
	CurrencyCode     string    `json:"currency_code"`
	Tariff           int       `json:"tariff"`
	TimezoneOffset   int       `json:"timezone_offset"`
	PendingInput     string    `json:"pending_input"`
	LastBalanceMsgID int64     `json:"last_balance_msg_id"`
	BalancePostCount int64     `json:"balance_post_count"`
	LastLoginAt      time.Time `json:"last_login_at"`
	RegisteredAt     time.Time `json:"registered_at"`
}

// NewUserParams carries the externally supplied fields for registration.
// Tariff and timestamps are filled in by the user service.
type NewUserParams struct {
	UserID         int64
	DisplayName    string
	AccountType    string
	LanguageCode   string
	TimezoneOffset int
}
