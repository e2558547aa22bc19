// Command barscan finds and decodes barcodes in image files.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ericlevine/barscan/cmd/barscan/cmd"
)

func main() {
	err := cmd.NewRootCommand().Execute()
	switch {
	case err == nil:
	case errors.Is(err, cmd.ErrNoSymbols):
		// 4 reports images without any barcode
		os.Exit(4)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
