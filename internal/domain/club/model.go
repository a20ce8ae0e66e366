package club

import "time"

// Club is a team known internally by UUID and upstream by a numeric id.
// EAClubID is empty until the first successful name resolution.
type Club struct {
	ID        string
	Name      string
	EAClubID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
