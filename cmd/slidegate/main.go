// Command slidegate drives concurrent document creation through a sliding
// window rate limiter.
package main

func main() {
	Execute()
}
