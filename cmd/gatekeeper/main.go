// Package main provides the entry point for the Gatekeeper CLI.
//
// Gatekeeper automates the daily gatepass submission against the KPCL
// AMS portal. It maintains authenticated sessions for every configured
// account, reconciles the live gatepass form with per-account overrides,
// and fires all submissions concurrently one second before the portal
// opens its daily window.
//
// Usage:
//
//	gatekeeper run
//	gatekeeper fire
//	gatekeeper login <identity>
//
// See --help for all available options.
package main

// main is the entry point for Gatekeeper.
func main() {
	Execute()
}
