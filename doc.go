// Package goSession provides the session and two-factor verification engine for a
// membership portal: primary login, code verification with bounded attempts and
// lockout, countdown-driven UI state, idle/absolute session expiry, and the
// enrollment flow that turns two-factor authentication on for an account.
//
// The package is designed for concurrent callers: Engine methods and the handles
// they return ([Verification], [Setup]) are safe to use from multiple goroutines
// after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Engine], [Builder], [Config], the
// collaborator interfaces ([CredentialVerifier], [CodeVerifier], [CodeSender],
// [BackupCodeIssuer], [SessionStore], [TwoFactorStore]), and value types
// (SessionSnapshot, VerificationStatus, MetricsSnapshot). Identity data, code
// delivery, and code checking live behind the collaborator interfaces and are
// never owned here.
//
// # What this package must NOT do
//
//   - Render pages, route requests, or expose any HTTP surface.
//   - Store passwords, phone numbers, or verification codes beyond the
//     lifetime of the flow that needs them.
//   - Reimplement RFC 6238; the TOTP primitive is delegated to a vetted
//     library and only the protocol around it lives here.
//
// # Timing contract
//
// Every countdown and deadline is recomputed from absolute wall-clock
// timestamps on read. A process that is suspended (laptop lid closed, VM
// paused) and resumes past a deadline observes the expiry immediately; no
// remaining-time value is derived from accumulated ticks.
package goSession
