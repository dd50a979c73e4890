// Package audit delivers authentication events to a sink off the request path.
package audit
