// Package subfile reads and writes subscription lists in the exchange
// formats other clients use: the takeout CSV, FreeTube profile dumps,
// NewPipe JSON, and OPML feeds. Decoding is lenient per record and
// strict per file: a damaged row is rejected and counted, a damaged
// file fails outright.
package subfile
