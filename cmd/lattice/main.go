// Package main provides the lattice CLI: parse and check JSON documents
// with the incremental engine, or watch a workspace directory.
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/orizon-lang/lattice/internal/document"
	"github.com/orizon-lang/lattice/internal/format"
	"github.com/orizon-lang/lattice/internal/grammar/json"
	"github.com/orizon-lang/lattice/internal/semantic"
	"github.com/orizon-lang/lattice/internal/workspace"
)

var version = workspace.EngineVersion

func main() {
	log.SetFlags(0)
	log.SetPrefix("lattice: ")

	rootCmd := &cobra.Command{
		Use:   "lattice",
		Short: "Lattice - incremental compiler front-end engine",
		Long: `Lattice manages editable source files as persistent structures with
incremental lexing, incremental parsing and demand-driven semantic
analysis. The CLI drives the bundled JSON grammar.`,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lattice v%s\n", version)
		},
	})

	parseCmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a JSON file and print its canonical form",
		Args:  cobra.ExactArgs(1),
		RunE:  runParse,
	}
	parseCmd.Flags().Bool("tokens", false, "Dump the token stream instead of the tree")
	rootCmd.AddCommand(parseCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "check [files...]",
		Short: "Report syntax diagnostics for JSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCheck,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "watch [dir]",
		Short: "Watch a workspace directory and re-check files on change",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runParse(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	doc := document.NewImmutable(json.New(), string(data))
	if dump, _ := cmd.Flags().GetBool("tokens"); dump {
		for _, chunk := range doc.Tokens() {
			fmt.Printf("%4d %-12s %q\n", chunk.Site, json.New().Name(chunk.Rule), chunk.Text)
		}
		return nil
	}

	fmt.Println(json.Print(doc, doc.Tree(), doc.RootNodeRef()))
	reportErrors(args[0], doc)
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	failed := false
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		doc := document.NewImmutable(json.New(), string(data))
		if doc.Tree().ErrorCount() > 0 {
			failed = true
		}
		reportErrors(path, doc)
	}
	if failed {
		return fmt.Errorf("syntax errors found")
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	analyzer := semantic.NewAnalyzer(json.New())
	ws, err := workspace.Open(args[0], analyzer)
	if err != nil {
		return err
	}
	if err := ws.Watch(); err != nil {
		return err
	}
	defer ws.Close()

	log.Printf("watching %s (%d files)", args[0], len(ws.Documents()))

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	<-interrupt
	return nil
}

func reportErrors(path string, doc *document.Document) {
	for _, ref := range doc.ErrorRefs() {
		err, ok := doc.GetError(ref.Entry)
		if !ok {
			continue
		}
		message := err.Display(doc, doc.Grammar())
		fmt.Printf("%s:%s\n", path, message)
		fmt.Println(format.Snippet(doc, err.Span, ""))
	}
}
