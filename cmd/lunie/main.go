// Command lunie draws the moon's current phase in the terminal, shading a
// moon image from a daily illumination dataset.
package main

func main() {
	Execute()
}
