// Package publish uploads the finished output file to a GitHub repository
// through the contents API.
//
// The current blob sha is looked up first so an existing file is updated in
// place; otherwise the file is created. A missing token disables the upload
// without an error, and upload failures never affect the crawl result.
package publish
