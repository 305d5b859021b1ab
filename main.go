package main

import "github.com/nikogura/resumeforge/cmd"

func main() {
	cmd.Execute()
}
