package main

import "imagefeed/cmd"

func main() {
	cmd.Run()
}
