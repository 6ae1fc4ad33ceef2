package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	internal "github.com/ZanzyTHEbar/columnar-inspect/cinspect"
	"github.com/ZanzyTHEbar/columnar-inspect/cinspect/config"
	"github.com/ZanzyTHEbar/columnar-inspect/cinspect/format"
	"github.com/ZanzyTHEbar/columnar-inspect/cinspect/inspect"

	ignore "github.com/sabhiram/go-gitignore"
)

func main() {
	logger := internal.GetLogger()

	configPath := flag.String("config", "", "path to config file")
	dataset := flag.String("dataset", "", "dataset name to inspect (default: every dataset in the file)")
	output := flag.String("output", "", "output format: text or json")
	workers := flag.Int("workers", 0, "max concurrent inspections (0 = unbounded)")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <container-file-or-dir>...\n", internal.DefaultAppName)
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if *dataset != "" {
		cfg.Inspect.Dataset = *dataset
	}
	if *output != "" {
		cfg.Inspect.Output = *output
	}
	if *workers > 0 {
		cfg.Inspect.MaxWorkers = *workers
	}

	paths, err := expandPaths(flag.Args(), cfg.Inspect.IgnoreFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve input paths")
	}
	if len(paths) == 0 {
		logger.Fatal().Msg("no container files found")
	}

	targets, err := resolveTargets(paths, cfg.Inspect.Dataset)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve datasets")
	}

	reports, err := inspect.InspectAll(context.Background(), targets, cfg.Inspect.MaxWorkers)
	if err != nil {
		logger.Fatal().Err(err).Msg("inspection failed")
	}

	switch cfg.Inspect.Output {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			logger.Fatal().Err(err).Msg("failed to encode reports")
		}
	default:
		for _, report := range reports {
			printReport(report)
		}
	}
}

// expandPaths turns the CLI arguments into a flat list of container files.
// Directories are scanned recursively for the container extension, honoring a
// gitignore-style ignore file when one exists at the directory root.
func expandPaths(args []string, ignoreFileName string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		var matcher *ignore.GitIgnore
		if ignoreFileName != "" {
			if compiled, err := ignore.CompileIgnoreFile(filepath.Join(arg, ignoreFileName)); err == nil {
				matcher = compiled
			}
		}

		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(path), internal.DefaultContainerExt) {
				return nil
			}
			if matcher != nil {
				rel, relErr := filepath.Rel(arg, path)
				if relErr == nil && matcher.MatchesPath(rel) {
					return nil
				}
			}
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", arg, err)
		}
	}
	return paths, nil
}

// resolveTargets pairs every container file with the datasets to inspect in
// it: the configured dataset name, or all datasets listed in the file.
func resolveTargets(paths []string, datasetName string) ([]inspect.Target, error) {
	var targets []inspect.Target
	for _, path := range paths {
		if datasetName != "" {
			targets = append(targets, inspect.Target{Path: path, Dataset: datasetName})
			continue
		}
		file, err := format.Open(path)
		if err != nil {
			return nil, err
		}
		for _, name := range file.Datasets() {
			targets = append(targets, inspect.Target{Path: path, Dataset: name})
		}
		file.Close()
	}
	return targets, nil
}

func printReport(report *inspect.Report) {
	fmt.Printf("dataset %q (%s)\n", report.Dataset, report.Path)
	fmt.Printf("  fields: %d  physical columns: %d  clusters: %d\n",
		report.NFields, report.NPhysicalColumns, report.NClusters)
	fmt.Printf("  compression settings: %d\n", report.CompressionSettings)
	fmt.Printf("  on-disk size: %d B  in-memory size: %d B\n", report.OnDiskSize, report.InMemorySize)
	if report.CompressionRatioMean > 0 {
		fmt.Printf("  compression ratio: mean %.2f, stddev %.2f\n",
			report.CompressionRatioMean, report.CompressionRatioStdDev)
	}

	fmt.Println("  columns:")
	for _, col := range report.Columns {
		fmt.Printf("    #%-4d %-8s elements=%-10d on-disk=%-10d in-memory=%d\n",
			col.PhysicalID, col.Type, col.ElementCount, col.OnDiskSize, col.InMemorySize)
	}

	fmt.Println("  fields:")
	for _, field := range report.Fields {
		name := field.Name
		if name == "" {
			name = "(root)"
		}
		fmt.Printf("    #%-4d %-24s %-16s on-disk=%-10d in-memory=%d\n",
			field.ID, name, field.TypeName, field.OnDiskSize, field.InMemorySize)
	}
	fmt.Println()
}
