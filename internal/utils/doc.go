// Package utils provides shared configuration loading and logger construction
// helpers for featcheck commands.
package utils
