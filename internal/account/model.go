package account

import "strings"

// Manifest is the on-disk accounts.yaml structure. It is an optional
// alternative to the ACCOUNTS / CRON_SCHEDULE environment variables for
// setups that prefer a mounted config file.
type Manifest struct {
	Schema   string   `yaml:"$schema,omitempty"`
	Accounts []string `yaml:"accounts"`
	Schedule string   `yaml:"schedule,omitempty"`
}

// Parse splits a whitespace-delimited account list into an ordered slice.
// Identifiers are opaque: they are not deduplicated (a duplicate identifier
// means a duplicate schedule entry and a duplicate run) and not validated
// beyond the splitting itself.
func Parse(s string) []string {
	return strings.Fields(s)
}
