package goSession

import (
	"context"
	"sync"

	"github.com/MrEthical07/goSession/password"
)

// LocalCredentialVerifier is the bundled [CredentialVerifier]. Accounts live
// in-process with argon2id password hashes; the two-factor store decides
// whether a successful primary check escalates to a second factor. It exists
// for tests, examples, and small deployments that have no external identity
// backend.
type LocalCredentialVerifier struct {
	hasher    *password.Argon2
	twoFactor TwoFactorStore

	mu       sync.RWMutex
	accounts map[string]*localAccount // identifier -> account
}

type localAccount struct {
	userID   string
	hash     string
	inactive bool
}

// NewLocalCredentialVerifier describes the newlocalcredentialverifier operation and its observable behavior.
//
// NewLocalCredentialVerifier may return an error when input validation, dependency calls, or security checks fail.
// NewLocalCredentialVerifier does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewLocalCredentialVerifier(hasher *password.Argon2, twoFactor TwoFactorStore) (*LocalCredentialVerifier, error) {
	if hasher == nil {
		var err error
		hasher, err = password.NewArgon2(password.DefaultConfig())
		if err != nil {
			return nil, err
		}
	}
	return &LocalCredentialVerifier{
		hasher:    hasher,
		twoFactor: twoFactor,
		accounts:  make(map[string]*localAccount),
	}, nil
}

// Register creates or replaces an account. The password is hashed before it
// is stored; the plaintext is not retained.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (l *LocalCredentialVerifier) Register(identifier, plainPassword, userID string) error {
	hash, err := l.hasher.Hash(plainPassword)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.accounts[identifier] = &localAccount{userID: userID, hash: hash}
	l.mu.Unlock()
	return nil
}

// SetInactive marks or unmarks an account as inactive. Inactive accounts
// fail login after the password check so the caller learns nothing it could
// not learn with the right password.
func (l *LocalCredentialVerifier) SetInactive(identifier string, inactive bool) {
	l.mu.Lock()
	if acc, ok := l.accounts[identifier]; ok {
		acc.inactive = inactive
	}
	l.mu.Unlock()
}

// VerifyPrimary checks the identifier and password pair. Unknown identifiers
// and wrong passwords both come back as PrimaryInvalid. When the account has
// two-factor enabled the result escalates to PrimarySecondFactorRequired with
// the configured method plus backup codes.
//
// VerifyPrimary may return an error when input validation, dependency calls, or security checks fail.
// VerifyPrimary does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (l *LocalCredentialVerifier) VerifyPrimary(ctx context.Context, creds Credentials) (PrimaryResult, error) {
	l.mu.RLock()
	acc, ok := l.accounts[creds.Identifier]
	var hash string
	var userID string
	var inactive bool
	if ok {
		hash = acc.hash
		userID = acc.userID
		inactive = acc.inactive
	}
	l.mu.RUnlock()

	if !ok {
		// Burn a hash anyway so unknown identifiers cost the same as
		// wrong passwords.
		_, _ = l.hasher.Hash(creds.Password)
		return PrimaryResult{Status: PrimaryInvalid}, nil
	}

	match, err := l.hasher.Verify(creds.Password, hash)
	if err != nil {
		return PrimaryResult{}, err
	}
	if !match {
		return PrimaryResult{Status: PrimaryInvalid}, nil
	}
	if inactive {
		return PrimaryResult{Status: PrimaryInactive, UserID: userID}, nil
	}

	if upgrade, uerr := l.hasher.NeedsUpgrade(hash); uerr == nil && upgrade {
		if rehash, rerr := l.hasher.Hash(creds.Password); rerr == nil {
			l.mu.Lock()
			if cur, still := l.accounts[creds.Identifier]; still && cur.hash == hash {
				cur.hash = rehash
			}
			l.mu.Unlock()
		}
	}

	if l.twoFactor == nil {
		return PrimaryResult{Status: PrimaryOK, UserID: userID}, nil
	}

	cfg, err := l.twoFactor.GetTwoFactorConfig(ctx, userID)
	if err != nil {
		return PrimaryResult{}, err
	}
	if cfg == nil || !cfg.Enabled {
		return PrimaryResult{Status: PrimaryOK, UserID: userID}, nil
	}

	methods := []Method{cfg.Method}
	if cfg.BackupCodesRef != "" && cfg.Method != MethodBackup {
		methods = append(methods, MethodBackup)
	}
	return PrimaryResult{
		Status:  PrimarySecondFactorRequired,
		UserID:  userID,
		Methods: methods,
	}, nil
}
