package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/scout/scouterr"
	"github.com/ZanzyTHEbar/scout/sidecar"
)

var (
	cleanDir       string
	cleanRecursive bool
	cleanYes       bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove sidecars whose source media no longer exists",
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().StringVar(&cleanDir, "dir", ".", "directory to clean")
	cleanCmd.Flags().BoolVarP(&cleanRecursive, "recursive", "r", true, "descend into subdirectories")
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "delete without confirming")
}

func runClean(cmd *cobra.Command, args []string) error {
	refs, err := sidecar.Enumerate(cleanDir, cleanRecursive)
	if err != nil {
		return scouterr.Wrap(scouterr.Fatal, err, "scout: enumerate sidecars under %s", cleanDir)
	}

	type orphan struct {
		sidecarPath string
		mediaPath   string
	}
	var orphans []orphan

	for _, ref := range refs {
		entry, err := sidecar.Load(ref.SidecarPath)
		if err != nil {
			continue
		}
		var originalFilename string
		switch {
		case entry.Image != nil:
			originalFilename = entry.Image.OriginalFilename
		case entry.Video != nil:
			originalFilename = entry.Video.OriginalFilename
		default:
			continue
		}
		mediaPath := filepath.Join(ref.MediaDir, originalFilename)
		if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
			orphans = append(orphans, orphan{sidecarPath: ref.SidecarPath, mediaPath: mediaPath})
		}
	}

	if len(orphans) == 0 {
		interactor.Output("nothing to clean")
		return nil
	}

	for _, o := range orphans {
		interactor.Output(fmt.Sprintf("orphaned sidecar for missing %s", o.mediaPath))
	}

	if !cleanYes {
		interactor.Output(fmt.Sprintf("delete %d orphaned sidecar(s)? [y/N] ", len(orphans)))
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		if line != "y\n" && line != "Y\n" && line != "yes\n" {
			interactor.Output("aborted")
			return nil
		}
	}

	var deleted int
	for _, o := range orphans {
		if err := sidecar.Delete(o.sidecarPath); err != nil {
			interactor.Warning(fmt.Sprintf("delete %s: %v", o.sidecarPath, err))
			continue
		}
		deleted++
	}
	interactor.Output(fmt.Sprintf("deleted %d sidecar(s)", deleted))
	return nil
}
