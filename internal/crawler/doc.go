// Package crawler implements the listing-page pipeline: page enumeration,
// record extraction, multi-sink fan-out, and the driver that sequences them
// one page at a time.
package crawler
