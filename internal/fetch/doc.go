// Package fetch downloads large remote objects as parallel byte-range segments.
//
// A Fetcher probes the object size with a HEAD request, skips the transfer
// when a file of the same size is already present, and otherwise splits the
// object into contiguous ranges that a fixed pool of workers downloads into
// separate segment files. Segments are retried individually with exponential
// backoff; once every segment is verified the files are concatenated in range
// order into a temp file that is renamed over the target. Any segment that
// exhausts its retries aborts the whole download and all partial files are
// removed.
//
// Progress from all workers is aggregated in a single atomic Counter. A retried
// segment only adds bytes past the furthest offset an earlier attempt reached,
// so the reported total never moves backwards.
package fetch
