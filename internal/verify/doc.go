// Package verify implements the feature-tracking document verification core:
// a parser extracting feature records from a markdown pipe table, and a
// seven-step fail-fast pipeline cross-checking the records against configured
// expectations and live commit metadata.
package verify
