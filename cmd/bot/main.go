package main

import (
	"fmt"
	"os"
)

func main() {
	s := &srv{}
	s.loadApp()

	if err := s.app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
