package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lex00/appstack-go/internal/config"
)

// newWatchCmd creates the "watch" subcommand for rebuilding on file changes.
func newWatchCmd() *cobra.Command {
	var (
		flags        projectFlags
		debounce     time.Duration
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Rebuild the template when the project changes",
		Long: `Watch monitors the convention directories and the context files and
rebuilds the template on every change. Rapid changes are debounced.

Examples:
    appstack watch --env dev -o template.json
    appstack watch ./myapp --env dev --debounce 1s`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := rootArg(args)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), cmd.OutOrStdout(), root, watchOptions{
				flags:        flags,
				debounce:     debounce,
				outputFormat: outputFormat,
				outputFile:   outputFile,
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format for build: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file for build (default: report only)")

	return cmd
}

type watchOptions struct {
	flags        projectFlags
	debounce     time.Duration
	outputFormat string
	outputFile   string
}

// runWatch rebuilds once, then again after every debounced change, until
// ctx is cancelled.
func runWatch(ctx context.Context, out io.Writer, root string, opts watchOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// the root itself is watched for the context files
	if err := watcher.Add(root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	dirs := watchDirs(root, opts.flags)
	for _, dir := range dirs {
		if isDir(dir) {
			fmt.Fprintf(out, "Watching: %s\n", dir)
		}
	}
	if err := syncWatches(watcher, root, dirs); err != nil {
		return err
	}
	contextFiles := make(map[string]bool)
	for _, f := range config.Files(root, opts.flags.env) {
		contextFiles[f] = true
	}

	fmt.Fprintln(out, "Running initial build...")
	rebuild(ctx, out, root, opts)

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	fmt.Fprintln(out, "\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// convention dirs can appear or vanish while watching
			if affectsWatches(event, dirs) {
				_ = syncWatches(watcher, root, dirs)
			}
			if !relevant(event, dirs, contextFiles, opts.outputFile) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(opts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			fmt.Fprintf(out, "\n[%s] Change detected, rebuilding...\n", time.Now().Format("15:04:05"))
			rebuild(ctx, out, root, opts)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)

		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			fmt.Fprintln(out, "\nStopping watch...")
			return nil
		}
	}
}

// watchDirs returns the convention directories of root, present or not.
// The layout comes from the context when it loads, the default otherwise.
func watchDirs(root string, f projectFlags) []string {
	return layoutFor(root, f).Watched()
}

// syncWatches watches every existing convention dir recursively and, for a
// missing one, its nearest existing ancestor so its creation is seen.
func syncWatches(watcher *fsnotify.Watcher, root string, dirs []string) error {
	for _, dir := range dirs {
		if isDir(dir) {
			if err := addDirRecursive(watcher, dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			continue
		}
		ancestor := nearestExistingAncestor(dir, root)
		if err := watcher.Add(ancestor); err != nil {
			return fmt.Errorf("failed to watch %s: %w", ancestor, err)
		}
	}
	return nil
}

// nearestExistingAncestor returns the closest existing directory above dir,
// stopping at root.
func nearestExistingAncestor(dir, root string) string {
	for d := filepath.Dir(dir); within(d, root) && d != root; d = filepath.Dir(d) {
		if isDir(d) {
			return d
		}
	}
	return root
}

// affectsWatches reports whether event creates or removes a directory on
// the way to, or inside, a convention dir.
func affectsWatches(event fsnotify.Event, dirs []string) bool {
	switch {
	case event.Op&fsnotify.Create != 0:
		if !isDir(event.Name) {
			return false
		}
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
	default:
		return false
	}
	for _, d := range dirs {
		if within(d, event.Name) || within(event.Name, d) {
			return true
		}
	}
	return false
}

// relevant reports whether event should trigger a rebuild: a context file,
// or a path inside or on the way to a convention dir. The build output and
// dotfiles other than .env are ignored.
func relevant(event fsnotify.Event, dirs []string, contextFiles map[string]bool, outputFile string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if outputFile != "" {
		if abs, err := filepath.Abs(outputFile); err == nil && abs == event.Name {
			return false
		}
	}
	if contextFiles[event.Name] {
		return true
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return false
	}
	for _, d := range dirs {
		if within(event.Name, d) || within(d, event.Name) {
			return true
		}
	}
	return false
}

// within reports whether path is dir or below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// addDirRecursive adds a directory and all subdirectories to the watcher.
func addDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			base := filepath.Base(path)
			if path != dir && (strings.HasPrefix(base, ".") || base == "node_modules") {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

// rebuild synthesizes once and reports the outcome. Errors are printed,
// never returned, so the watch keeps running.
func rebuild(ctx context.Context, out io.Writer, root string, opts watchOptions) {
	syn, err := synthesize(ctx, root, opts.flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Build error: %v\n", err)
		return
	}

	data, err := encodeTemplate(syn.template, opts.outputFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Output error: %v\n", err)
		return
	}

	if opts.flags.assetsDir != "" {
		if err := writeManifest(opts.flags.assetsDir, &syn.stack.Assets); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write manifest: %v\n", err)
			return
		}
	}

	if opts.outputFile == "" {
		fmt.Fprintln(out, "Build successful")
		fmt.Fprintf(out, "Generated %d resources\n", len(syn.template.Resources))
		return
	}
	if err := os.WriteFile(opts.outputFile, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Build successful, wrote %s\n", opts.outputFile)
}
