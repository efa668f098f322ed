package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	_ "github.com/tliron/commonlog/simple"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hiero",
		Short: "A hierarchical phrase-based decoder",
	}

	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newCheckCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "hiero:", err)
		stop()
		os.Exit(1)
	}
}
