package validation

import (
	"regexp"
	"strings"
)

// Ethereum wallet address: 0x followed by 40 hex characters.
var walletRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ISINs are 12 characters: 2-letter country code, 9 alphanumerics, 1 check digit.
var isinRe = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// IsValidWalletAddress reports whether s looks like an Ethereum address.
func IsValidWalletAddress(s string) bool {
	return walletRe.MatchString(s)
}

// NormalizeWalletAddress lowercases an address; wallet addresses are stored
// and compared lowercase throughout.
func NormalizeWalletAddress(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsValidISIN reports whether s is a well-formed ISIN.
func IsValidISIN(s string) bool {
	return isinRe.MatchString(s)
}
