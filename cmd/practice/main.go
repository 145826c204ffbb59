// Terminal client for text interview practice
package main

import "github.com/ashureev/interview-labs/internal/cli"

func main() {
	cli.Execute()
}
