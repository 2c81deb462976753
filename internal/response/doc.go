// Package response classifies search payloads streamed by the server.
//
// A payload is a JSON object in one of two shapes that share the "page" and
// "resultCount" members:
//
//	{"films":"A New Hope, ...","name":"Darth Vader","page":1,"resultCount":3}
//	{"error":"No results found","page":-1,"resultCount":-1}
//
// Classify decides between them by the presence of a string "error" member
// and returns a *SearchResultPage, a *SearchError, or a *Malformed carrying
// the parse failure.
package response
