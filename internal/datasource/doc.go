// Package datasource turns batch requests into in-memory batches of rows.
//
// A Datasource owns named data connectors. InferredAssetFilesystemDataConnector
// infers data assets from file names under a base directory; the
// RuntimeDataConnector wraps rows handed over in the batch request itself.
// Every batch carries a content-derived id (see ir.BatchID).
package datasource
