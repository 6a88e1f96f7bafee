package main

import (
	"fmt"
	"os"

	"github.com/Ampersand-AI/chiper/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "chiper: %v\n", err)
		os.Exit(1)
	}
}
