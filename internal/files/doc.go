// Package files handles sales report files on disk.
//
// Manager stores the raw bytes of uploads under the uploads directory,
// named by content hash, and deletes them again when data is cleared.
//
// Discovery finds report files in a directory for the ingest command.
//
//	discovery := files.NewDiscovery(baseDir)
//	found, err := discovery.Find("incoming")
package files
