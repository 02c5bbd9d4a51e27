package main

import osx "os"

type server struct{}

func (server) main() {
	osx.Exit(1)
}

func main() {
	osx.Exit(3) // want "direct os.Exit call in main function"
}
