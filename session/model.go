package session

// Session defines a public type used by goSession APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Session struct {
	SessionID string
	UserID    string
	Token     string

	Method                string
	Remember              bool
	SecondFactorSatisfied bool

	IssuedAt     int64
	ExpiresAt    int64
	IdleDeadline int64
}
