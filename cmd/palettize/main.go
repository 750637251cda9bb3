// palettize - reduce images to a small representative colour palette
//
// palettize quantizes the pixels of one or more images into a bounded
// palette using median-cut or octree quantization.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

import (
	"os"

	"github.com/jmylchreest/palettize/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
