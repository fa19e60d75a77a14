package entity

import "time"

// Audit actions
const (
	AuditCalculationOverwrite = "CALCULATION_OVERWRITE"
	AuditDailyEntriesZeroed   = "DAILY_ENTRIES_ZEROED"
	AuditRegistrySync         = "REGISTRY_SYNC"
)

// AuditEntry is one line of the audit trail
type AuditEntry struct {
	ID        uint      `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}
