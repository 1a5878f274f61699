package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// Touch updates the audit trail for a mutation by the given user.
func (a *AuditFields) Touch(userID string, now time.Time) {
	a.LastUpdatedAt = now
	a.LastUpdatedBy = userID
}

// Recyclable is the shared soft-delete/restore capability embedded by every
// persisted entity. Deleting hides the record from default queries; it never
// removes history. Restore is a full round-trip: all other fields survive.
type Recyclable struct {
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// IsDeleted reports whether the entity is currently soft-deleted.
func (r *Recyclable) IsDeleted() bool { return r.DeletedAt != nil }

// Delete marks the entity as soft-deleted at the given time.
func (r *Recyclable) Delete(now time.Time) {
	if r.DeletedAt == nil {
		t := now
		r.DeletedAt = &t
	}
}

// Restore clears the soft-delete marker.
func (r *Recyclable) Restore() { r.DeletedAt = nil }
