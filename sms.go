package goSession

import (
	"context"
	"crypto/subtle"
	"sync"

	"github.com/MrEthical07/goSession/internal"
)

// MemorySMSGateway is the bundled SMS collaborator for tests, examples, and
// local development. It generates real codes but delivers nowhere; tests
// read the last code back with LastCode. Codes are single use.
type MemorySMSGateway struct {
	digits int

	mu    sync.Mutex
	codes map[string]string // userID -> outstanding code
	sent  map[string]int    // userID -> dispatch count
}

// NewMemorySMSGateway describes the newmemorysmsgateway operation and its observable behavior.
//
// NewMemorySMSGateway may return an error when input validation, dependency calls, or security checks fail.
// NewMemorySMSGateway does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMemorySMSGateway(digits int) *MemorySMSGateway {
	if digits < 6 || digits > 10 {
		digits = 6
	}
	return &MemorySMSGateway{
		digits: digits,
		codes:  make(map[string]string),
		sent:   make(map[string]int),
	}
}

// SendSMS describes the sendsms operation and its observable behavior.
//
// SendSMS may return an error when input validation, dependency calls, or security checks fail.
// SendSMS does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *MemorySMSGateway) SendSMS(_ context.Context, vc VerificationContext) error {
	code, err := internal.NewOTP(g.digits)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.codes[vc.UserID] = code
	g.sent[vc.UserID]++
	g.mu.Unlock()
	return nil
}

// VerifyCode describes the verifycode operation and its observable behavior.
//
// VerifyCode may return an error when input validation, dependency calls, or security checks fail.
// VerifyCode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (g *MemorySMSGateway) VerifyCode(_ context.Context, method Method, code string, vc VerificationContext) (bool, error) {
	if method != MethodSMS {
		return false, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	want, ok := g.codes[vc.UserID]
	if !ok || len(want) != len(code) {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(code)) != 1 {
		return false, nil
	}
	delete(g.codes, vc.UserID)
	return true, nil
}

// LastCode returns the outstanding code for a user, or "" when none is
// pending. Test and demo hook only.
func (g *MemorySMSGateway) LastCode(userID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.codes[userID]
}

// SentCount reports how many dispatches a user has received.
func (g *MemorySMSGateway) SentCount(userID string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sent[userID]
}
