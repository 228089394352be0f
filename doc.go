// Package stowgate provides a read-only HTTP gateway in front of an object
// store, with a shared response cache.
//
// The gateway maps request paths to object keys and answers GET and HEAD
// requests from an ObjectStore. Conditional request headers and a single byte
// range are handed to the store, which decides whether to return the body.
//
// # Key Components
//
//   - ObjectStore: key-addressed object retrieval (Get, Head)
//   - Bucket: ObjectStore over a MetaDataRepo and a FileStorage
//   - MetaDataRepo: Interface for metadata persistence (PostgreSQL, SQLite)
//   - FileStorage: Interface for reading object files (filesystem)
//   - Conditions: If-Match, If-None-Match, If-Modified-Since and
//     If-Unmodified-Since predicates
//
// Other ObjectStore implementations live in sub-packages, such as s3 for
// S3-compatible services.
//
// # Range Requests
//
// ParseRange accepts exactly "<start>-<end>" (optionally prefixed by "bytes=")
// with both ends present. Anything else is an ErrInvalidRange.
//
// # Example Usage
//
//	bucket, err := stowgate.NewBucket(repo, storage)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	obj, err := bucket.Get(ctx, "path/to/file.txt", stowgate.GetOptions{
//	    Range: &stowgate.Range{Offset: 0, Length: 512},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer obj.Body.Close()
package stowgate
