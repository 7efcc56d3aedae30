// Package httputil provides shared HTTP response/request helpers so every
// endpoint uses the same JSON formatting and error envelope.
package httputil
