// Package probe implements the diagnostic engine: independent DNS, TCP,
// HTTP, ICMP and TLS probes plus the Scanner that fans them out with a
// shared concurrency ceiling and aggregates their results into one
// ScanRecord per target.
//
// Every probe converts its own failures into a result value; errors never
// cross a probe boundary, so a slow or broken probe cannot abort its
// siblings. Only invalid input rejects a scan outright.
package probe
