package settings

import "time"

const EventSettingsUpdated = "SettingsUpdated"

type SettingsUpdated struct {
	Currency       string    `json:"currency"`
	CurrencySymbol string    `json:"currencySymbol"`
	ShopName       string    `json:"shopName"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
