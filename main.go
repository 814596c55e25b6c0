// Package main is the entry point for the content mirror.
package main

import "github.com/jonesrussell/north-cloud/content-mirror/cmd"

func main() {
	cmd.Execute()
}
