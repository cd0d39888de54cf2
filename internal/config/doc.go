// Package config manages Gatekeeper's runtime configuration.
//
// Two sources of configuration exist:
//   - The Config struct, populated from CLI flags with documented defaults
//     (portal URLs, timeouts, the daily trigger time)
//   - The YAML account file (.gatekeeper.yml), listing the portal accounts
//     with their session cookies and per-account form overrides
//
// The account file supports a defaults section whose overrides are merged
// under every account's own overrides, with the account winning on conflict.
//
// Both sources are validated once, up front, before any scheduling begins.
package config
