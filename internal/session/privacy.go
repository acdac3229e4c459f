package session

import (
	"crypto/sha256"
	"fmt"
)

// PrivacyFilter masks user info before it is sent to other users. Operators
// always see unmasked info. The zero value is a no-op filter.
type PrivacyFilter struct {
	MaskAddresses bool
	MaskCIDs      bool
	MaskAgents    bool
}

// Apply returns a copy of info masked for a viewer holding viewer credentials.
// The original is never modified.
func (f *PrivacyFilter) Apply(info Info, viewer Credentials) Info {
	if viewer.IsOperator() {
		return info
	}

	if f.MaskAddresses {
		info.Addr = ""
	}

	if f.MaskCIDs && info.CID != "" {
		info.CID = shortHash(info.CID)
	}

	if f.MaskAgents {
		info.UserAgent = ""
	}

	return info
}

// FilterSlice returns masked copies of infos for viewer.
func (f *PrivacyFilter) FilterSlice(infos []Info, viewer Credentials) []Info {
	result := make([]Info, 0, len(infos))
	for _, info := range infos {
		result = append(result, f.Apply(info, viewer))
	}
	return result
}

// IsNoop reports whether the filter does nothing.
func (f *PrivacyFilter) IsNoop() bool {
	return !f.MaskAddresses && !f.MaskCIDs && !f.MaskAgents
}

// shortHash returns a truncated SHA-256 hex digest for an opaque identifier.
func shortHash(s string) string {
	h := sha256.Sum256([]byte(s))
	return fmt.Sprintf("%x", h[:6])
}
