package entities

import (
	"encoding/binary"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-crypt/x/blake2b"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NodeID is the canonical identifier of a drug or indication node.
// It is derived from the normalized display name and never changes once created.
type NodeID string

// EdgeID identifies a relationship edge. It is a content hash of
// (source, target, type) so the same edge always gets the same id.
type EdgeID uint64

func (id EdgeID) String() string {
	return strconv.FormatUint(uint64(id), 16)
}

// NormalizeName lowercases s, strips diacritics and collapses every run of
// non alphanumeric characters into a single underscore.
// "Atopic Dermatitis" and "atopic-dermatitis" both give "atopic_dermatitis".
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

// CanonicalPhase maps "Phase 2", "phase_2" and "PHASE2" to "PHASE2".
func CanonicalPhase(phase string) string {
	return strings.ToUpper(strings.ReplaceAll(NormalizeName(phase), "_", ""))
}

// CanonicalStatus maps "Active, not recruiting" to "ACTIVE_NOT_RECRUITING".
func CanonicalStatus(status string) string {
	return strings.ToUpper(NormalizeName(status))
}

// NodeIDFromName derives the canonical node id for a display name.
func NodeIDFromName(name string) NodeID {
	return NodeID(NormalizeName(name))
}

// EdgeIDFor hashes the edge key with BLAKE2b-64.
func EdgeIDFor(source, target NodeID, relType RelationshipType) EdgeID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(source))
	h.Write([]byte{'|'})
	h.Write([]byte(target))
	h.Write([]byte{'|'})
	h.Write([]byte(relType))
	return EdgeID(binary.LittleEndian.Uint64(h.Sum(nil)))
}
