package accountstore

import "encoding/hex"

// encodedName maps an account id onto the restricted alphabet that Key Vault
// and Secret Manager accept for secret names. Hex keeps the mapping injective.
func encodedName(prefix, accountID string) string {
	return prefix + hex.EncodeToString([]byte(accountID))
}
