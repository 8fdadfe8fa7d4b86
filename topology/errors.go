package topology

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTopology   = errors.New("topology has no logical threads")
	ErrOutOfRange      = errors.New("requested thread count out of range")
	ErrMalformedInput  = errors.New("malformed topology input")
	ErrDuplicateThread = errors.New("duplicate logical thread")
)

// OutOfRangeError is returned when a selection asks for fewer than one
// thread or more threads than the machine has.
type OutOfRangeError struct {
	Requested int
	Available int
}

func (self *OutOfRangeError) Error() string {
	return fmt.Sprintf("cannot select %d threads, %d available", self.Requested, self.Available)
}

func (self *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

// MalformedInputError describes an incomplete or unparsable thread record.
type MalformedInputError struct {
	// Source names the input, a file path or "cpuN".
	Source string
	// Record is the 1-based index of the record within Source.
	Record int
	Reason string
}

func (self *MalformedInputError) Error() string {
	if self.Record > 0 {
		return fmt.Sprintf("%s: record %d: %s", self.Source, self.Record, self.Reason)
	}
	return fmt.Sprintf("%s: %s", self.Source, self.Reason)
}

func (self *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

type DuplicateThreadError struct {
	Thread int
}

func (self *DuplicateThreadError) Error() string {
	return fmt.Sprintf("logical thread %d listed more than once", self.Thread)
}

func (self *DuplicateThreadError) Is(target error) bool {
	return target == ErrDuplicateThread
}
