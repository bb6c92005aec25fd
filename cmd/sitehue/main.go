// sitehue audits the rendered colours and text contrast of websites.
package main

import "github.com/jmylchreest/sitehue/internal/cli"

func main() {
	cli.Execute()
}
