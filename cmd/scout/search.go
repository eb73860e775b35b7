package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/scout/retrieval"
	"github.com/ZanzyTHEbar/scout/scouterr"
)

var (
	searchImage         string
	searchWeight        float32
	searchNegative      string
	searchDir           string
	searchLimit         int
	searchMinScore      float32
	searchOpen          bool
	searchIncludeRef    bool
	searchExcludeVideos bool
	searchPathsOnly     bool
	searchExportPath    string
	searchFormat        string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed media by text and/or a reference image",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchImage, "image", "", "reference image path for a positive image query")
	searchCmd.Flags().Float32Var(&searchWeight, "weight", retrieval.DefaultTextWeight, "text weight when blending text and image queries")
	searchCmd.Flags().StringVar(&searchNegative, "not", "", "negative text query, penalizes matching results")
	searchCmd.Flags().StringVar(&searchDir, "dir", ".", "directory to search")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum results returned")
	searchCmd.Flags().Float32Var(&searchMinScore, "score", 0, "minimum similarity score")
	searchCmd.Flags().BoolVar(&searchOpen, "open", false, "open the top result with the OS file handler")
	searchCmd.Flags().BoolVar(&searchIncludeRef, "include-ref", false, "include the reference image itself in results")
	searchCmd.Flags().BoolVar(&searchExcludeVideos, "exclude-videos", false, "skip video results")
	searchCmd.Flags().BoolVar(&searchPathsOnly, "paths", false, "print only result paths, one per line")
	searchCmd.Flags().StringVar(&searchExportPath, "export", "", "write results as JSON to PATH, or - for stdout")
	searchCmd.Flags().StringVar(&searchFormat, "format", "pretty", "output format: pretty|json|plain")
}

type searchExportQuery struct {
	Text     string   `json:"text,omitempty"`
	Image    string   `json:"image,omitempty"`
	Weight   float32  `json:"weight,omitempty"`
	Negative string   `json:"negative,omitempty"`
}

type searchExportRow struct {
	Path             string  `json:"path"`
	Score            float32 `json:"score"`
	ContentHash      string  `json:"content_hash"`
	Kind             string  `json:"kind"`
	TimestampSeconds *float64 `json:"timestamp_seconds,omitempty"`
}

type searchExport struct {
	Query   searchExportQuery  `json:"query"`
	Results []searchExportRow  `json:"results"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var text string
	if len(args) > 0 {
		text = args[0]
	}
	if text == "" && searchImage == "" {
		return scouterr.New(scouterr.InputInvalid, "scout: search requires a query or --image")
	}

	q := retrieval.Query{
		Text:         text,
		ImagePath:    searchImage,
		NegativeText: searchNegative,
		TextWeight:   searchWeight,
	}
	opts := retrieval.Options{
		Recursive:        true,
		ExcludeVideos:    searchExcludeVideos || flagDisableVideo,
		IncludeReference: searchIncludeRef,
		MinScore:         searchMinScore,
		Limit:            searchLimit,
	}

	orch := buildOrchestrator(cfg)
	rows, err := retrieval.Search(cmd.Context(), orch, searchDir, q, opts)
	if err != nil {
		return scouterr.Wrap(scouterr.Fatal, err, "scout: search")
	}

	if searchExportPath != "" {
		return exportSearchResults(q, rows)
	}

	switch {
	case searchPathsOnly, searchFormat == "plain", searchFormat == "paths":
		for _, r := range rows {
			interactor.Output(r.Path)
		}
	case searchFormat == "json":
		return exportSearchResults(q, rows)
	default:
		printSearchPretty(rows)
	}

	if searchOpen && len(rows) > 0 {
		openWithOS(rows[0].Path)
	}
	return nil
}

func printSearchPretty(rows []retrieval.Row) {
	for _, r := range rows {
		if r.Kind.String() == "video" {
			interactor.Output(fmt.Sprintf("%.4f  %s  @%.1fs", r.Score, r.Path, r.TimestampSeconds))
		} else {
			interactor.Output(fmt.Sprintf("%.4f  %s", r.Score, r.Path))
		}
	}
}

func exportSearchResults(q retrieval.Query, rows []retrieval.Row) error {
	export := searchExport{
		Query: searchExportQuery{
			Text:     q.Text,
			Image:    q.ImagePath,
			Weight:   q.TextWeight,
			Negative: q.NegativeText,
		},
		Results: make([]searchExportRow, 0, len(rows)),
	}
	for _, r := range rows {
		row := searchExportRow{
			Path:        r.Path,
			Score:       r.Score,
			ContentHash: r.ContentHash,
			Kind:        r.Kind.String(),
		}
		if r.Kind.String() == "video" {
			ts := r.TimestampSeconds
			row.TimestampSeconds = &ts
		}
		export.Results = append(export.Results, row)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return scouterr.Wrap(scouterr.Fatal, err, "scout: marshal search export")
	}
	data = append(data, '\n')

	if searchExportPath == "" || searchExportPath == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(searchExportPath, data, 0o644)
}

func openWithOS(path string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		interactor.Warning(fmt.Sprintf("open %s: %v", path, err))
	}
}
