package tenant

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidOwner = errors.New("invalid owner identifier")
)

// Owners are the verified clinician emails handed to us by the identity
// provider. They are never used raw: Normalize is the only way to obtain an
// Owner, and every storage query is scoped by the normalized value.
type Owner string

func (o Owner) String() string { return string(o) }

var ownerPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const maxOwnerLength = 255

// Normalize validates a raw owner identifier and returns its canonical form
// (trimmed, lowercased). Returns ErrInvalidOwner when the identifier is empty,
// too long, or not a plausible email address.
func Normalize(raw string) (Owner, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || len(s) > maxOwnerLength {
		return "", ErrInvalidOwner
	}
	if !ownerPattern.MatchString(s) {
		return "", ErrInvalidOwner
	}
	return Owner(s), nil
}

// Registration is the per-owner registry row. Records themselves live in a
// single shared table keyed by owner; this table only tracks which owners
// have been provisioned and when they first wrote.
type Registration struct {
	Owner     string    `gorm:"column:owner;type:varchar(255);primaryKey" json:"owner"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Registration) TableName() string {
	return "clinical.tenants"
}

// Store provisions owner namespaces. Provisioning happens lazily on the write
// path only; reads for an unknown owner must not allocate anything.
type Store interface {
	// EnsureProvisioned registers the owner if not yet known. Idempotent and
	// safe under concurrent first-writers for the same owner.
	EnsureProvisioned(ctx context.Context, owner Owner) error

	// IsProvisioned reports whether the owner has been registered. Never
	// allocates.
	IsProvisioned(ctx context.Context, owner Owner) (bool, error)
}
