package main

import (
	"fmt"
	"os"

	"github.com/fatimazahraessad/gestion-test-enligne/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "testplatform: %v\n", err)
		os.Exit(1)
	}
}
