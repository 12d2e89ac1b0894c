// Package identity derives stable entity IDs from natural keys.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const hashLen = 32

// Normalize canonicalises a natural-key part: NFKC, case folded, inner
// whitespace collapsed.
func Normalize(part string) string {
	s := norm.NFKC.String(part)
	// Casers carry state; one per call keeps Normalize safe for concurrent use.
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}

// HasNaturalKey reports whether Derive will produce a stable ID for parts.
func HasNaturalKey(parts ...string) bool {
	for _, p := range parts {
		if Normalize(p) != "" {
			return true
		}
	}
	return false
}

// Derive returns prefix:<hash> where the hash covers prefix, tenant, case and
// the normalised parts in order. When every part is empty it falls back to a
// random ID, which is not idempotent.
func Derive(prefix, tenantID, caseID string, parts ...string) string {
	if !HasNaturalKey(parts...) {
		return prefix + ":" + uuid.NewString()
	}
	normalized := make([]string, len(parts))
	for i, p := range parts {
		normalized[i] = Normalize(p)
	}
	return prefix + ":" + digest(prefix, tenantID, caseID, strings.Join(normalized, "|"))
}

// DeriveEdge keys an edge by its endpoints and type inside a scope.
func DeriveEdge(tenantID, caseID, sourceID, edgeType, targetID string) string {
	return "edge:" + digest("edge", tenantID, caseID, sourceID+"|"+edgeType+"|"+targetID)
}

func digest(prefix, tenantID, caseID, key string) string {
	h := sha256.New()
	h.Write([]byte(prefix))
	h.Write([]byte{':'})
	h.Write([]byte(tenantID))
	h.Write([]byte{':'})
	h.Write([]byte(caseID))
	h.Write([]byte{':'})
	h.Write([]byte(key))
	return hex.EncodeToString(h.Sum(nil))[:hashLen]
}
