// Package datasets stores loaded survey datasets and resolves the bundled
// dataset sources.
//
// Two Store implementations exist: MemoryStore for single-process use and
// SQLiteStore, which keeps each table as a JSON document in a SQLite file
// (pure-Go driver, WAL journal, embedded migrations). NewStore picks one
// from config.StorageConfig.
//
// Registry knows the named sources. ISD is read from a local file or
// downloaded once into the cache directory; ARAUS and SATP are listed but
// return ErrUnsupportedSource.
package datasets
