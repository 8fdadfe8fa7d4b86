package generator

import (
	"fmt"
	"math/rand"
)

// IntegerGenerator is a generator capable of generating integers and strings.
type IntegerGenerator interface {
	Generator
	// NextInt returns the next value as an int. When overriding this method,
	// be sure to call SetLastInt() properly, or the LastString() call
	// won't work.
	NextInt() int64
	LastInt() int64

	Mean() float64
}

// IntegerGeneratorBase is a parent class for all IntegerGenerator subclasses.
type IntegerGeneratorBase struct {
	lastInt int64
}

func NewIntegerGeneratorBase(last int64) *IntegerGeneratorBase {
	return &IntegerGeneratorBase{
		lastInt: last,
	}
}

// SetLastInt sets the last value to be generated.
func (self *IntegerGeneratorBase) SetLastInt(value int64) {
	self.lastInt = value
}

// NextString generates the next string in the distribution of g.
func (self *IntegerGeneratorBase) NextString(g IntegerGenerator) string {
	return fmt.Sprintf("%d", g.NextInt())
}

func (self *IntegerGeneratorBase) LastInt() int64 {
	return self.lastInt
}

func (self *IntegerGeneratorBase) LastString() string {
	return fmt.Sprintf("%d", self.LastInt())
}

// ConstantIntegerGenerator is a trivial integer generator that always returns
// the same value.
type ConstantIntegerGenerator struct {
	*IntegerGeneratorBase
	value int64
}

func NewConstantIntegerGenerator(i int64) *ConstantIntegerGenerator {
	return &ConstantIntegerGenerator{
		IntegerGeneratorBase: NewIntegerGeneratorBase(i - 1),
		value:                i,
	}
}

func (self *ConstantIntegerGenerator) NextInt() int64 {
	self.SetLastInt(self.value)
	return self.value
}

func (self *ConstantIntegerGenerator) NextString() string {
	return self.IntegerGeneratorBase.NextString(self)
}

func (self *ConstantIntegerGenerator) Mean() float64 {
	return float64(self.value)
}

// UniformIntegerGenerator generates integers randomly uniform from
// an interval.
type UniformIntegerGenerator struct {
	*IntegerGeneratorBase
	lowerBound int64
	upperBound int64
	interval   int64
	// private source, nil for the shared one
	random *rand.Rand
}

// NewUniformIntegerGenerator creates a generator that will return integers
// uniformly randomly from the interval [lowerBound, upperBound] inclusive.
func NewUniformIntegerGenerator(lowerBound, upperBound int64) *UniformIntegerGenerator {
	return &UniformIntegerGenerator{
		IntegerGeneratorBase: NewIntegerGeneratorBase(lowerBound - 1),
		lowerBound:           lowerBound,
		upperBound:           upperBound,
		interval:             upperBound - lowerBound + 1,
	}
}

// NewSeededUniformIntegerGenerator is like NewUniformIntegerGenerator but
// draws from its own source, so its sequence depends on seed alone. It is
// not safe for concurrent use.
func NewSeededUniformIntegerGenerator(lowerBound, upperBound, seed int64) *UniformIntegerGenerator {
	g := NewUniformIntegerGenerator(lowerBound, upperBound)
	g.random = rand.New(rand.NewSource(seed))
	return g
}

func (self *UniformIntegerGenerator) NextInt() int64 {
	var ret int64
	if self.random != nil {
		ret = self.random.Int63n(self.interval) + self.lowerBound
	} else {
		ret = NextInt64(self.interval) + self.lowerBound
	}
	self.SetLastInt(ret)
	return ret
}

func (self *UniformIntegerGenerator) NextString() string {
	return self.IntegerGeneratorBase.NextString(self)
}

func (self *UniformIntegerGenerator) Mean() float64 {
	return float64(self.lowerBound+self.upperBound) / 2.0
}

// NewIntegerGenerator returns the generator for a distribution name:
// "constant" always yields upperBound, "uniform" draws from
// [lowerBound, upperBound].
func NewIntegerGenerator(distribution string, lowerBound, upperBound int64) (IntegerGenerator, error) {
	if upperBound < lowerBound || lowerBound < 1 {
		return nil, NewErrorf("invalid bounds [%d, %d]", lowerBound, upperBound)
	}
	switch distribution {
	case "constant":
		return NewConstantIntegerGenerator(upperBound), nil
	case "uniform":
		return NewUniformIntegerGenerator(lowerBound, upperBound), nil
	default:
		return nil, NewErrorf("unsupported distribution: %s", distribution)
	}
}

// NewSeededIntegerGenerator is NewIntegerGenerator with a private source
// seeded by seed for the random distributions.
func NewSeededIntegerGenerator(distribution string, lowerBound, upperBound, seed int64) (IntegerGenerator, error) {
	gen, err := NewIntegerGenerator(distribution, lowerBound, upperBound)
	if err != nil {
		return nil, err
	}
	if distribution == "uniform" {
		return NewSeededUniformIntegerGenerator(lowerBound, upperBound, seed), nil
	}
	return gen, nil
}
