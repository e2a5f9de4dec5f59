// Command entitytree serves the entity reference tree endpoints.
package main

func main() {
	Execute()
}
