package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/scout/retrieval"
	"github.com/ZanzyTHEbar/scout/scouterr"
	"github.com/ZanzyTHEbar/scout/sidecar"
)

var (
	replDir           string
	replRecursive     bool
	replLimit         int
	replMinScore      float32
	replExcludeVideos bool
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Interactive search session over an indexed directory",
	RunE:  runRepl,
}

func init() {
	replCmd.Flags().StringVar(&replDir, "dir", ".", "directory to search")
	replCmd.Flags().BoolVarP(&replRecursive, "recursive", "r", true, "descend into subdirectories")
	replCmd.Flags().IntVar(&replLimit, "limit", 10, "maximum results per query")
	replCmd.Flags().Float32Var(&replMinScore, "score", 0, "minimum similarity score")
	replCmd.Flags().BoolVar(&replExcludeVideos, "exclude-videos", false, "skip video results")
}

func runRepl(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	interactor.Output("Starting interactive search mode")
	interactor.Output("Type your query, or 'exit' to quit ('help' for commands)")

	refs, err := sidecar.Enumerate(replDir, replRecursive)
	if err != nil {
		return scouterr.Wrap(scouterr.Fatal, err, "scout: enumerate %s", replDir)
	}
	if len(refs) == 0 {
		interactor.Warning("no indexed files found, run 'scout scan' first")
		return nil
	}
	interactor.Output(fmt.Sprintf("loaded %d indexed files", len(refs)))

	orch := buildOrchestrator(cfg)
	opts := retrieval.Options{
		Recursive:     replRecursive,
		ExcludeVideos: replExcludeVideos || flagDisableVideo,
		MinScore:      replMinScore,
		Limit:         replLimit,
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stdout, "scout> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch line {
		case "exit", "quit", "q":
			interactor.Output("goodbye")
			return nil
		case "help":
			printReplHelp()
			continue
		}

		q := retrieval.Query{Text: line, TextWeight: retrieval.DefaultTextWeight}
		rows, err := retrieval.Search(cmd.Context(), orch, replDir, q, opts)
		if err != nil {
			interactor.Warning(fmt.Sprintf("search failed: %v", err))
			continue
		}
		if len(rows) == 0 {
			interactor.Warning("no matches found")
			continue
		}
		printSearchPretty(rows)
	}
	return scanner.Err()
}

func printReplHelp() {
	interactor.Output("commands: exit | quit | q | help")
	interactor.Output("anything else is run as a text search query")
}
