// Package main provides the Quill ML toolkit CLI.
package main

import (
	"fmt"
	"os"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("Quill ML Toolkit %s\n", version)
		return
	}

	fmt.Println("Quill - Tensors, Autograd and Training for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("")
	fmt.Println("See examples/ for tensor, autograd and training walkthroughs")
}
