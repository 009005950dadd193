// Package guard owns authenticated sessions: who is logged in, what
// role they carry, and whether a requested surface may be shown. All
// mutation of a credential/identity pair goes through the Guard; every
// other component treats it as read-only.
package guard

import (
	"context"
	"log/slog"
	"strings"

	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/validate"
)

// Role is the access level attached to an identity.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity is the authenticated principal tracked by the guard.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	RealName string `json:"realName"`
	Role     Role   `json:"role"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Session is the persisted credential/identity pair.
type Session struct {
	Credential string   `json:"credential"`
	Identity   Identity `json:"identity"`
}

// Requirement describes what a navigation target demands.
type Requirement struct {
	RequireAuth bool
	RequireRole Role // empty means any role
}

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed  bool
	Redirect string // target when not allowed
	Origin   string // remembered location for post-login return
}

const (
	LoginTarget     = "/login"
	ForbiddenTarget = "/403"
)

// Authorize is a pure function of identity and requirement. Unauthenticated
// access to a guarded target redirects to login, remembering where the
// caller wanted to go; an authenticated caller with the wrong role is sent
// to the forbidden target.
func Authorize(identity *Identity, req Requirement, origin string) Decision {
	if req.RequireAuth && identity == nil {
		return Decision{Redirect: LoginTarget, Origin: origin}
	}
	if req.RequireRole != "" && (identity == nil || identity.Role != req.RequireRole) {
		return Decision{Redirect: ForbiddenTarget}
	}
	return Decision{Allowed: true}
}

// Authenticator performs the remote credential exchange.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (Identity, string, error)
}

// Verifier revalidates a stored credential against the authority.
type Verifier interface {
	Verify(ctx context.Context, credential string) (*Identity, error)
}

// Guard holds the session state and mediates every change to it.
type Guard struct {
	store         CredentialStore
	authenticator Authenticator
	verifier      Verifier
	logger        *slog.Logger
}

func New(store CredentialStore, authenticator Authenticator, verifier Verifier, logger *slog.Logger) *Guard {
	return &Guard{
		store:         store,
		authenticator: authenticator,
		verifier:      verifier,
		logger:        logger,
	}
}

// Authenticate validates the input shape, exchanges the credentials,
// persists the session under the identity's username, and returns both
// the identity and the credential for the transport layer to hand out.
// A digit-only login name must be a well-formed mobile number before
// any remote call is made; anything else is accepted as a username.
// Failure leaves previously stored state untouched.
func (g *Guard) Authenticate(ctx context.Context, usernameOrPhone, password string) (*Identity, string, error) {
	usernameOrPhone = strings.TrimSpace(usernameOrPhone)
	if usernameOrPhone == "" {
		return nil, "", dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if password == "" {
		return nil, "", dErrors.New(dErrors.CodeValidation, "password is required")
	}
	if validate.LooksLikePhone(usernameOrPhone) && !validate.Phone(usernameOrPhone) {
		return nil, "", dErrors.New(dErrors.CodeValidation, "phone number format is invalid")
	}

	identity, credential, err := g.authenticator.Authenticate(ctx, usernameOrPhone, password)
	if err != nil {
		return nil, "", err
	}

	if err := g.store.Save(ctx, Session{Credential: credential, Identity: identity}); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist session")
	}
	return &identity, credential, nil
}

// RestoreSession returns the cached identity for the username, if any.
// The cached identity is provisional: callers must follow up with
// Revalidate before treating it as final.
func (g *Guard) RestoreSession(ctx context.Context, username string) *Identity {
	session, err := g.store.Load(ctx, username)
	if err != nil || session == nil {
		return nil
	}
	identity := session.Identity
	return &identity
}

// Revalidate checks the stored credential against the authority. On any
// failure the session is torn down and nil is returned: local trust is
// provisional, never final.
func (g *Guard) Revalidate(ctx context.Context, username string) (*Identity, error) {
	session, err := g.store.Load(ctx, username)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if session == nil {
		return nil, nil
	}

	identity, err := g.verifier.Verify(ctx, session.Credential)
	if err != nil {
		g.logger.WarnContext(ctx, "session revalidation failed, tearing down",
			"username", session.Identity.Username,
			"error", err,
		)
		_ = g.store.Clear(ctx, username)
		return nil, nil
	}

	// Refresh the cached identity with the authoritative copy.
	if err := g.store.Save(ctx, Session{Credential: session.Credential, Identity: *identity}); err != nil {
		g.logger.WarnContext(ctx, "failed to refresh cached identity", "error", err)
	}
	return identity, nil
}

// Authorize applies the pure authorization rule to the username's
// stored session.
func (g *Guard) Authorize(ctx context.Context, username string, req Requirement, origin string) Decision {
	return Authorize(g.RestoreSession(ctx, username), req, origin)
}

// EndSession clears credential and identity unconditionally. Idempotent.
func (g *Guard) EndSession(ctx context.Context, username string) {
	_ = g.store.Clear(ctx, username)
}
