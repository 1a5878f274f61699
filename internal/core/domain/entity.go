package domain

// Entity is the reporting unit that owns a chart of accounts, transactions,
// periods and rates. All core records are scoped to exactly one entity.
type Entity struct {
	EntityID              string `json:"entityID"`
	Name                  string `json:"name"`
	ReportingCurrencyCode string `json:"reportingCurrencyCode"`
	AuditFields
	Recyclable
}
