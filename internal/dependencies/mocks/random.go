package mocks

import (
	"github.com/sweeparena/sweeparena/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	// IntnResults is a queue of results to return from Intn
	IntnResults []int
	intnIndex   int

	// Int63Results is a queue of results to return from Int63
	Int63Results []int64
	int63Index   int

	// DigitsResults is a queue of results to return from Digits
	DigitsResults []string
	digitsIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result, or 0 if none remaining
func (r *MockRandom) Intn(n int) int {
	if r.intnIndex >= len(r.IntnResults) {
		return 0
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	return result
}

// Int63 returns the next queued result, or 0 if none remaining
func (r *MockRandom) Int63() int64 {
	if r.int63Index >= len(r.Int63Results) {
		return 0
	}
	result := r.Int63Results[r.int63Index]
	r.int63Index++
	return result
}

// Digits returns the next queued result, or a string of zeros if none
// remaining
func (r *MockRandom) Digits(length int) string {
	if r.digitsIndex >= len(r.DigitsResults) {
		buf := make([]byte, length)
		for i := range buf {
			buf[i] = '0'
		}
		return string(buf)
	}
	result := r.DigitsResults[r.digitsIndex]
	r.digitsIndex++
	return result
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.IntnResults = append(r.IntnResults, values...)
}

// QueueInt63 adds values to the Int63 result queue
func (r *MockRandom) QueueInt63(values ...int64) {
	r.Int63Results = append(r.Int63Results, values...)
}

// QueueDigits adds values to the Digits result queue
func (r *MockRandom) QueueDigits(values ...string) {
	r.DigitsResults = append(r.DigitsResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.IntnResults = nil
	r.intnIndex = 0
	r.Int63Results = nil
	r.int63Index = 0
	r.DigitsResults = nil
	r.digitsIndex = 0
}
