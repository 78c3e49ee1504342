// Package retry repeats operations that fail transiently, waiting with
// exponential backoff between attempts. It is used for the publish requests.
package retry
