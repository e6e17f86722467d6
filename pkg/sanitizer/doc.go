// Package sanitizer provides input normalization for booking requests.
//
// All normalization functions are idempotent - applying them multiple times produces
// the same result. Functions handle invalid input gracefully, typically by returning
// empty strings or empty slices rather than errors; validation happens afterwards.
//
// Normalization includes:
//   - Emails: trim and lowercase, so ledger and quota keys are stable per user
//   - Facility ids: trim, keep letters, digits and hyphens
//   - Dates: trim surrounding whitespace
//   - Free text: collapse whitespace, trim leading/trailing spaces
//   - Slices: Remove duplicates and empty values after normalization
package sanitizer
