// Package report produces the downloadable PDF sales report.
//
// A Builder flattens a dashboard into table rows, an embedded html/template
// lays them out, and ChromeRenderer prints the page with headless Chrome.
package report
