package main

import "github.com/KaramelBytes/salesboard/cmd"

func main() {
	cmd.Execute()
}
