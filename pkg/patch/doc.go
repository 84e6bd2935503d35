// Package patch splits unified-diff streams into per-file entries.
//
// The package grew out of spatch's command implementation so that it can be
// reused by other tools. A Scanner recovers entry boundaries from a stream of
// lines, Entry.Metadata classifies each entry, and ReconstructAdded replays the
// hunks of a newly added file to recover its exact bytes. Sinks persist the
// results either on the local filesystem or in memory, which makes the package
// straightforward to embed in editors and testing utilities.
package patch
