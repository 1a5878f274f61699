package domain

// Currency represents a currency registered for an entity. The code is
// unique per entity and immutable once referenced by a transaction.
type Currency struct {
	CurrencyID string `json:"currencyID"`
	EntityID   string `json:"entityID"`
	Code       string `json:"code"` // ISO-4217 style, e.g. "USD"
	Name       string `json:"name"`
	AuditFields
	Recyclable
}
