// Command wincbus talks to a WINC1500 WiFi module's host bus from Linux,
// either directly through spidev/i2c-dev or through a bridge MCU.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
