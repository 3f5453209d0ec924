// bac is a one-shot command line ACME client built on the protocol engine in
// acme/client. It registers accounts, orders certificates and queries renewal
// windows; fulfilling challenges (serving the HTTP file or DNS record) is left
// to the operator.
package main

import (
	"fmt"
	"os"
)

func main() {
	cmd, err := rootCmd()
	if err == nil {
		err = cmd.Execute()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "bac:", err)
		os.Exit(1)
	}
}
