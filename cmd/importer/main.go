/*
main.go - one-shot import CLI

PURPOSE:
  Runs an import from a workbook or a JSON file without going through the
  HTTP server. The command opens the configured store, issues itself a
  short-lived token for --role and runs the same engine the server runs.

EXAMPLES:
  staffing-import run --file core.xlsx --type core_entities
  staffing-import run --file staffing.json --type staffing --db ./data/staffing.db
  staffing-import token --role MANAGER --ttl 8h
  staffing-import types

SEE ALSO:
  - sheet/sheet.go: workbook loading
  - config/config.go: environment variables
*/
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
