package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

func NewErrorf(format string, args ...interface{}) error {
	return errors.New(fmt.Sprintf(format, args...))
}

// Generator is an expression that generates a sequence of string values,
// following some distribution(Uniform, Zipfian, Sequential, etc.)
type Generator interface {
	// NextString generates the next string in the distribution.
	NextString() string
	// LastString returns the previous string generated by the distribution,
	// e.g. the string returned by the last NextString() call.
	// Calling LastString() should not advance the distribution or have any
	// side effects. If NextString() has not yet been called, LastString()
	// should return something reasonable.
	LastString() string
}

var (
	randomLock sync.Mutex
	random     = rand.New(rand.NewSource(rand.Int63()))
)

// NextInt64 returns a value in [0, n). The shared source is safe for use
// from several probe goroutines.
func NextInt64(n int64) int64 {
	randomLock.Lock()
	defer randomLock.Unlock()
	return random.Int63n(n)
}
