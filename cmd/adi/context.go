package main

import (
	"context"

	"github.com/spf13/cobra"
)

// contextWithTimeout derives a cancellable context from cmd bounded by the
// --timeout persistent flag.
func contextWithTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
