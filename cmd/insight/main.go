// Package main is the entry point for the insight analytics server.
package main

func main() {
	Execute()
}
