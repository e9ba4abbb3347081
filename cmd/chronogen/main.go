// Command chronogen generates bitemporal data-access code from XML
// entity schemas.
//
// Usage:
//
//	chronogen <schemaDir> <outputDir> <wrapperOutputDir> [flags]
//	chronogen sequence next|reset <name> [value] --connection <name>
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
