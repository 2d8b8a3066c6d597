// Package printing contains the Printing bounded context.
// This context is responsible for managing print templates and print jobs
// for member-facing documents such as invoices, payment receipts, and
// membership contracts.
package printing
