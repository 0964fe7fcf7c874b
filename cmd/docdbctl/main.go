// Command docdbctl is a small operator CLI around the compiler and the
// connection pool: "compile" exercises the pure query compiler without a
// database, "bootstrap" connects to Postgres and registers collection
// tables.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "docdbctl",
		Short: "Inspect and operate a docdb-backed Postgres database",
	}

	root.AddCommand(newCompileCmd())
	root.AddCommand(newBootstrapCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
