// Package report renders run reports for operators.
//
// Three formats cover the three audiences: plain text for the terminal
// and cron mail, JSON for tool integration, and Markdown for sharing a
// morning's results in a chat or wiki. All writers consume the same
// RunReport; a MultiWriter fans one report out to several destinations.
package report
