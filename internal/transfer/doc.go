// Package transfer downloads game archives from a catalog locator to a local
// path. Remote locators are fetched over HTTP; local paths and file:// URLs
// are copied. Payloads are streamed in fixed-size chunks with fractional
// progress reported after each chunk when the total size is known.
package transfer
