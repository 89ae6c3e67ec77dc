// Package mocks provides shared mock implementations for testing.
//
// This package contains a mock implementation of the LLM backend client
// that can be used by any package's tests.
//
// # Usage
//
//	import "conductor/internal/mocks"
//
//	func TestSomething(t *testing.T) {
//	    mockLLM := mocks.NewMockLLMClient()
//	    mockLLM.RespondWith(`{"next": "coder", "reason": "kod gerekli"}`)
//	    // Use mockLLM in test...
//	}
package mocks
