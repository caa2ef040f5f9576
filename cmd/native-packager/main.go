package main

import "github.com/tanin47/single-instance-deep-link/cmd/native-packager/cmd"

func main() {
	cmd.Execute()
}
