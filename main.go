// Command adkplatform drives the platform panels from the terminal.
package main

import "adkplatform/internal/cli"

func main() {
	cli.Execute()
}
