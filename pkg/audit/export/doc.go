// Package export writes audit records as JSON or CSV.
package export
