package goSession

import (
	"context"
	"crypto/sha256"
	"strings"
	"sync"

	"github.com/MrEthical07/goSession/internal"
)

// BackupCodeVault is the bundled backup-code collaborator. Codes are stored
// as user-salted SHA-256 hashes, each usable exactly once; issuing a new set
// atomically invalidates the previous one. Plaintext codes leave the vault
// only as the return value of IssueBackupCodes.
type BackupCodeVault struct {
	count  int
	digits int

	mu    sync.Mutex
	codes map[string][]backupCodeRecord
}

type backupCodeRecord struct {
	hash [32]byte
	used bool
}

// NewBackupCodeVault describes the newbackupcodevault operation and its observable behavior.
//
// NewBackupCodeVault may return an error when input validation, dependency calls, or security checks fail.
// NewBackupCodeVault does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewBackupCodeVault(count, digits int) *BackupCodeVault {
	if count <= 0 {
		count = 10
	}
	if digits < 8 || digits > 10 {
		digits = 8
	}
	return &BackupCodeVault{
		count:  count,
		digits: digits,
		codes:  make(map[string][]backupCodeRecord),
	}
}

// IssueBackupCodes describes the issuebackupcodes operation and its observable behavior.
//
// IssueBackupCodes may return an error when input validation, dependency calls, or security checks fail.
// IssueBackupCodes does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (v *BackupCodeVault) IssueBackupCodes(_ context.Context, userID string) ([]string, error) {
	plain := make([]string, 0, v.count)
	records := make([]backupCodeRecord, 0, v.count)

	for i := 0; i < v.count; i++ {
		code, err := internal.NewOTP(v.digits)
		if err != nil {
			return nil, err
		}
		plain = append(plain, code)
		records = append(records, backupCodeRecord{hash: backupCodeHash(userID, code)})
	}

	v.mu.Lock()
	v.codes[userID] = records
	v.mu.Unlock()

	return plain, nil
}

// VerifyCode consumes a backup code. Each code is accepted at most once,
// even when two submissions race.
//
// VerifyCode may return an error when input validation, dependency calls, or security checks fail.
// VerifyCode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (v *BackupCodeVault) VerifyCode(_ context.Context, method Method, code string, vc VerificationContext) (bool, error) {
	if method != MethodBackup {
		return false, nil
	}

	hash := backupCodeHash(vc.UserID, canonicalizeBackupCode(code))

	v.mu.Lock()
	defer v.mu.Unlock()

	records := v.codes[vc.UserID]
	for i := range records {
		if records[i].used || records[i].hash != hash {
			continue
		}
		records[i].used = true
		return true, nil
	}
	return false, nil
}

// RemainingCodes reports how many unused codes the user has left.
func (v *BackupCodeVault) RemainingCodes(userID string) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	n := 0
	for _, r := range v.codes[userID] {
		if !r.used {
			n++
		}
	}
	return n
}

func canonicalizeBackupCode(code string) string {
	code = strings.TrimSpace(code)
	code = strings.ReplaceAll(code, "-", "")
	code = strings.ReplaceAll(code, " ", "")
	return code
}

// backupCodeHash salts with the user ID so identical codes issued to
// different users never share a hash.
func backupCodeHash(userID, code string) [32]byte {
	return sha256.Sum256([]byte(userID + ":" + code))
}
