package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tmplconv/haml2erb/internal/driver"
	"github.com/tmplconv/haml2erb/pkg/haml2erb"
)

var (
	flagCheck  bool
	flagDryRun bool
	flagDelete bool
	flagForce  bool
	flagDebug  bool
	flagWatch  bool
)

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <path>",
		Short: "Convert a .haml file or a directory tree to .erb",
		Args:  cobra.ExactArgs(1),
		RunE:  runConvert,
	}
	cmd.Flags().BoolVar(&flagCheck, "check", false, "validate the converted output, do not just convert")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print the converted output instead of writing it")
	cmd.Flags().BoolVar(&flagDelete, "delete", false, "delete the original .haml file after a successful conversion")
	cmd.Flags().BoolVar(&flagForce, "force", false, "skip the confirmation prompt for --delete")
	cmd.Flags().BoolVar(&flagDebug, "debug", false, "print full error stacks")
	cmd.Flags().BoolVar(&flagWatch, "watch", false, "re-convert on every change under path")
	return cmd
}

func runConvert(cmd *cobra.Command, args []string) error {
	target := args[0]

	if flagDelete && !flagForce {
		if !confirmDelete(target) {
			fmt.Fprintln(cmd.OutOrStdout(), "aborted: pass --force to skip this prompt")
			return nil
		}
	}

	opts := haml2erb.Options{
		DeleteOriginal: flagDelete,
		Validate:       flagCheck,
		DryRun:         flagDryRun,
	}

	if flagWatch {
		return runWatch(target, driver.Options{
			DeleteOriginal: flagDelete,
			Validate:       flagCheck,
			DryRun:         flagDryRun,
		})
	}

	info, err := os.Stat(target)
	if err != nil {
		return errors.Wrapf(err, "stat %s", target)
	}

	var results []driver.FileResult
	if info.IsDir() {
		results, err = haml2erb.ConvertDirectory(target, opts)
		if err != nil {
			return err
		}
	} else {
		results = []driver.FileResult{haml2erb.ConvertFile(target, opts)}
	}

	printSummary(cmd, results)
	if hasFailure(results) {
		return errExitNonZero
	}
	return nil
}

// errExitNonZero makes main() exit non-zero after runConvert has already
// printed the per-file summary; main() prints only its short message.
var errExitNonZero = errors.New("conversion completed with errors")

func hasFailure(results []driver.FileResult) bool {
	for _, r := range results {
		if len(r.Errors) > 0 {
			return true
		}
		if r.Valid != nil && !r.Valid.Success {
			return true
		}
	}
	return false
}

func confirmDelete(target string) bool {
	fmt.Printf("Delete %s after conversion? [y/N] ", target)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return line == "y\n" || line == "Y\n" || line == "yes\n"
}

func runWatch(target string, opts driver.Options) error {
	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		close(stop)
	}()

	fmt.Println(labelStyle.Render("watching") + " " + filepath.Clean(target))
	return driver.Watch(target, opts, func(r driver.FileResult) {
		printSummary(nil, []driver.FileResult{r})
	}, stop)
}
