// Package session implements the interactive search loop.
//
// A Runner reads one query per line and runs a search session for each. A
// session owns a fresh transport: it connects, emits the query, prints every
// response the server streams back, and disconnects once the last page, a
// search error or an unusable payload arrives. The completion signal is a
// one-shot channel fed from the transport's event handler, so the loop never
// polls.
package session
