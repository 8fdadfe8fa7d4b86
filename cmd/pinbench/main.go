package main

import (
	"github.com/hhkbp2/pinbench"
)

func main() {
	pinbench.Main()
}
