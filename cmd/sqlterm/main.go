// Command sqlterm is an interactive terminal client for SQL Server.
package main

import "github.com/sqlterm/sqlterm/internal/cli"

func main() {
	cli.Execute()
}
