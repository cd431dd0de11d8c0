package main

import "image-feed/cmd"

func main() {
	cmd.Run()
}
