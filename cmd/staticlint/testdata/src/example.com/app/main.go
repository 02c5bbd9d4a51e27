package main

import (
	"fmt"
	"os"
)

func main() {
	defer fmt.Println("bye")
	if len(os.Args) > 5 {
		os.Exit(2) // want "direct os.Exit call in main function"
	}
	exit := func() { os.Exit(1) } // want "direct os.Exit call in main function"
	_ = exit
}

func fail() {
	os.Exit(1)
}
