package models

// SessionModel is the JSON document stored under session:<id>. Timestamps
// are milliseconds since the Unix epoch.
type SessionModel struct {
	ID              string                  `json:"id"`
	IsActive        bool                    `json:"isActive"`
	CreatedAt       int64                   `json:"createdAt"`
	ClosedAt        *int64                  `json:"closedAt,omitempty"`
	Name            *string                 `json:"name,omitempty"`
	DurationMinutes *int                    `json:"durationMinutes,omitempty"`
	Attendance      []AttendanceRecordModel `json:"attendance"`
	Tokens          []string                `json:"tokens"`
	OwnerToken      string                  `json:"ownerToken"`
}

type AttendanceRecordModel struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	Section   string `json:"section"`
	Timestamp int64  `json:"timestamp"`
}
