// Package protocol defines the wire message catalog: type discriminators,
// payload structs, and error codes. Every outbound message carries a
// server timestamp in milliseconds.
package protocol
