// Package main provides lesionctl, the command line companion of the lesion
// inspector API.
//
// Usage:
//
//	lesionctl analyze mole.jpg [more.png ...]
//	lesionctl history --user alice
//	lesionctl token --subject alice
//
// See --help for all available options.
package main

func main() {
	Execute()
}
