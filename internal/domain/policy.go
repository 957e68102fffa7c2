package domain

import (
	"context"
	"crypto/sha256"
	"strings"
)

// PolicyKey is the hashed logical path under which the permission/policy
// collaborator stores one value.
type PolicyKey [32]byte

// HashPolicyPath hashes a logical path such as ("roles", "admin", addr).
func HashPolicyPath(parts ...string) PolicyKey {
	return PolicyKey(sha256.Sum256([]byte(strings.Join(parts, "/"))))
}

// Well-known policy paths consumed by the core.
func PlatformPausedKey() PolicyKey              { return HashPolicyPath("platform", "paused") }
func PlatformFeeBpsKey() PolicyKey              { return HashPolicyPath("fees", "platform_bps") }
func DefaultPostActionKey() PolicyKey           { return HashPolicyPath("postaction", "default") }
func AdminRoleKey(address string) PolicyKey     { return HashPolicyPath("roles", "admin", address) }
func RegisteredContractKey(addr string) PolicyKey {
	return HashPolicyPath("contracts", "registered", addr)
}
func AssetAvailableKey(asset string) PolicyKey { return HashPolicyPath("assets", "available", asset) }

// PolicyStore is the permission/policy collaborator: typed key-value lookups
// keyed by hashed logical paths. The core consumes it read-only; missing
// keys read as zero values, not errors.
type PolicyStore interface {
	GetBool(ctx context.Context, key PolicyKey) (bool, error)
	GetString(ctx context.Context, key PolicyKey) (string, error)
	GetUint(ctx context.Context, key PolicyKey) (uint64, error)
}
