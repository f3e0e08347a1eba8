// Command stylebench trains a nearest-neighbour style recognizer on one
// labelled corpus and scores it on another.
//
// Usage:
//
//	stylebench evaluate --train train.csv --test test.csv [flags]
//	stylebench version
package main

import (
	"fmt"
	"os"

	"github.com/RyanBlaney/sonido-estilo/cmd/stylebench/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
