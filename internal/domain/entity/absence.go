package entity

import "time"

// AbsencePeriod is an inclusive date range in which a collaborator is not
// reimbursed. Overlapping periods for the same collaborator are allowed.
type AbsencePeriod struct {
	ID             uint      `json:"id"`
	CollaboratorID uint      `json:"collaborator_id"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Reason         string    `json:"reason"`
	CreatedAt      time.Time `json:"created_at"`
}
