// Package archive reads workflow package archives and extracts them into a
// scratch directory.
//
// The Reader interface is the archive-reader capability: a lazy iterator of
// entries with a name, a kind, and a byte stream. Open builds a Reader for
// tar, tar+gzip, and zip containers, detecting the format from the file's
// leading bytes rather than its extension. Readers perform no name
// normalization of their own; Extract is the sole gatekeeper and rejects
// every entry whose name would land outside the scratch root, as well as
// every entry that is not a regular file or a directory.
package archive
