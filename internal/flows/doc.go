// Package flows holds the request orchestration behind every Engine operation.
//
// Each Run function takes a dependency struct built once by the Engine and returns a
// result carrying a failure kind, so the root package owns error mapping, metrics and
// audit while the sequencing rules live here. Flows hold no state between calls.
package flows
