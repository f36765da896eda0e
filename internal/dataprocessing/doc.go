// Package dataprocessing turns uploaded distributor sales reports into
// canonical transactions.
//
// # Architecture
//
// Processing a file runs three stages:
//
//  1. Detector: picks a Format from the extension and, for workbooks, from
//     the first rows of the first sheet
//  2. Extractor: one implementation per Format produces RawRecord values
//     keyed by the field names used in that report
//  3. Normalizer: renames fields per format, parses dates, fills defaults
//     and projects onto domain.Transaction
//
// Pipeline ties the stages together and never returns an error; every
// failure ends up on the Result so a batch upload can continue.
//
// # Usage
//
//	p := dataprocessing.NewPipeline(cfg.Ingest, metrics, logger)
//	res := p.Process(ctx, "statement.pdf", data)
//	if res.HasData() {
//	    store.InsertTransactions(ctx, res.Transactions)
//	}
//
// # Formats
//
// TXT and PDF reports are scanned line by line with the current customer
// (and area, for PDF) carried forward. CSV files are header driven. Three
// spreadsheet layouts are recognized; when the detected layout rejects a
// workbook the remaining layouts are tried in order.
//
// Rows lost during normalization are counted in NormalizeStats.
package dataprocessing
