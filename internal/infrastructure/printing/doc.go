// Package printing renders club documents (tax invoices, member contracts,
// payment receipts) from HTML templates into PDFs and stores the results.
//
// Two PDFRenderer implementations are provided: ChromedpRenderer drives a
// headless Chrome instance and is the default, WkhtmltopdfRenderer shells out
// to the wkhtmltopdf binary for environments where Chrome is unavailable.
// Rendered files land behind the PDFStorage interface, backed by the local
// filesystem. Long-term archival to object storage is handled separately by
// the storage service.
//
// Templates support Arabic and English variants per tenant. The ZATCA QR code
// on tax invoices is generated upstream in the compliance domain and arrives
// here as template data.
package printing
