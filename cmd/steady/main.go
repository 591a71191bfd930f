package main

import (
	"os"

	// Register classifier implementations.
	_ "github.com/crimson-sun/steady/internal/classifier/httpclassifier"
	_ "github.com/crimson-sun/steady/internal/classifier/onnx"
	_ "github.com/crimson-sun/steady/internal/classifier/replay"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
