// Command presskit computes minimal button presses for machine puzzles.
package main

func main() {
	Execute()
}
