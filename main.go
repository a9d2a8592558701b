package main

import "github.com/kjanat/livedash-deploy/cmd/root"

func main() {
	root.Execute()
}
