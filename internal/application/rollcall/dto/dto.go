package dto

// SessionDTO is the JSON view of a session. Timestamps are milliseconds since
// the Unix epoch. Secret-bearing fields are only filled by the converters
// that are meant to expose them.
type SessionDTO struct {
	ID              string                 `json:"id"`
	IsActive        bool                   `json:"isActive"`
	CreatedAt       int64                  `json:"createdAt"`
	ClosedAt        *int64                 `json:"closedAt,omitempty"`
	Name            *string                `json:"name,omitempty"`
	DurationMinutes *int                   `json:"durationMinutes,omitempty"`
	Attendance      []*AttendanceRecordDTO `json:"attendance"`
	Tokens          []string               `json:"tokens,omitempty"`
	TokensCount     *int                   `json:"tokensCount,omitempty"`
	OwnerToken      string                 `json:"ownerToken,omitempty"`
}

type AttendanceRecordDTO struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Surname   string `json:"surname"`
	Section   string `json:"section"`
	Timestamp int64  `json:"timestamp"`
}

// CreatedSessionDTO is returned once, on creation. It is the only response
// that carries the owner secret.
type CreatedSessionDTO struct {
	SessionID       string  `json:"sessionId"`
	IsActive        bool    `json:"isActive"`
	CreatedAt       int64   `json:"createdAt"`
	Name            *string `json:"name,omitempty"`
	DurationMinutes *int    `json:"durationMinutes,omitempty"`
	OwnerToken      string  `json:"ownerToken"`
	Token           string  `json:"token"`
	InstructorURL   string  `json:"instructorUrl"`
	AttendURL       string  `json:"attendUrl"`
}

type IssuedTokenDTO struct {
	Token         string `json:"token"`
	AttendURL     string `json:"attendUrl"`
	QRCodeDataURL string `json:"qrCodeDataUrl,omitempty"`
}

type ValidateTokenDTO struct {
	OK          bool    `json:"ok"`
	SessionID   string  `json:"sessionId"`
	SessionName *string `json:"sessionName,omitempty"`
}

type CloseSessionDTO struct {
	Success bool        `json:"success"`
	Session *SessionDTO `json:"session"`
}

type SubmitAttendanceDTO struct {
	OK        bool                 `json:"ok"`
	SessionID string               `json:"sessionId"`
	Record    *AttendanceRecordDTO `json:"record,omitempty"`
	Attendees int                  `json:"attendees"`
}
