// Package retry provides exponential backoff for transient provider and
// transport failures.
//
// [Do] retries an operation until it succeeds, the attempt budget is spent,
// the context is cancelled, or the operation returns an error marked with
// [Fatal]. Authentication failures and invalid-input responses are marked
// fatal by the callers that recognise them.
package retry
