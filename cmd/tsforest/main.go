// tsforest trains and benchmarks random shapelet forests on UCR/UEA
// time-series classification problems.
//
// Usage:
//
//	tsforest example [--plot out.png] [--save-model forest.bin]
//	tsforest smoke
//	tsforest experiments <data_dir> <results_dir> [--folds 2] [--datasets Beef,Coffee] [--store runs.db]
//	tsforest summary --store runs.db [--run <id>]
//	tsforest generate <out_dir>
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(nil).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
