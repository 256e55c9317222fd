package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const orgIDLength = 16

// DeriveOrgID computes the identity key of a government client from its
// organization name, office code and official reference. The result is a
// one-way digest: changing any input yields a different id.
func DeriveOrgID(orgName, officeCode, officialReference string) string {
	sum := sha256.Sum256([]byte(orgName + officeCode + officialReference))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:orgIDLength])
}
