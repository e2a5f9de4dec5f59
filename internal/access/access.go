// Package access resolves the requesting account and answers permission
// checks for the tree endpoints.
package access

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net/http"
	"strings"
)

// PermissionAccessContent gates every tree read.
const PermissionAccessContent = "access content"

// AnonymousName is the account name used for unauthenticated requests.
const AnonymousName = "anonymous"

// User is the current-user view the tree builders check against.
type User interface {
	Name() string
	HasPermission(permission string) bool
}

// Account is a configured user with a flat permission list.
// Admin accounts hold every permission.
type Account struct {
	AccountName string
	Permissions []string
	Admin       bool
}

func (a *Account) Name() string { return a.AccountName }

func (a *Account) HasPermission(permission string) bool {
	if a.Admin {
		return true
	}
	for _, p := range a.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Anonymous returns an anonymous account holding the given permissions.
func Anonymous(permissions ...string) *Account {
	return &Account{AccountName: AnonymousName, Permissions: permissions}
}

// Directory holds the known accounts keyed by a digest of their bearer
// token.
type Directory struct {
	accounts  map[[sha256.Size]byte]*Account
	anonymous *Account
}

// NewDirectory creates a directory whose anonymous account holds
// anonymousPermissions.
func NewDirectory(anonymousPermissions []string) *Directory {
	return &Directory{
		accounts:  make(map[[sha256.Size]byte]*Account),
		anonymous: Anonymous(anonymousPermissions...),
	}
}

// Add registers a that authenticates with token. Empty and already
// registered tokens are rejected.
func (d *Directory) Add(a *Account, token string) error {
	if token == "" {
		return fmt.Errorf("access: account %q has no token", a.AccountName)
	}
	key := sha256.Sum256([]byte(token))
	if other, ok := d.accounts[key]; ok {
		return fmt.Errorf("access: account %q reuses the token of %q", a.AccountName, other.AccountName)
	}
	d.accounts[key] = a
	return nil
}

// Authenticate returns the account holding token, or the anonymous account
// if the token is empty or unknown.
func (d *Directory) Authenticate(token string) User {
	if token == "" {
		return d.anonymous
	}
	if a, ok := d.accounts[sha256.Sum256([]byte(token))]; ok {
		return a
	}
	return d.anonymous
}

type ctxKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// UserFromContext returns the user stored in ctx. A context without a user
// yields an anonymous account with no permissions.
func UserFromContext(ctx context.Context) User {
	if u, ok := ctx.Value(ctxKey{}).(User); ok && u != nil {
		return u
	}
	return Anonymous()
}

// BearerToken returns the token of an "Authorization: Bearer" header, or
// "" when the request carries none.
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware attaches the account authenticated by the request's bearer
// token to the request context. Requests without a valid token are
// anonymous; identity headers such as X-Actor are never trusted.
func Middleware(dir *Directory) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := dir.Authenticate(BearerToken(r))
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}
