// Package bundle turns lambda source folders into deployable directories.
//
// The bundler itself is external; this package only invokes it and awaits
// the result. BundleAll runs one invocation per lambda concurrently.
package bundle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Request asks for one lambda to be bundled.
type Request struct {
	// Name is the lambda folder name.
	Name string
	// SourceDir is the lambda source folder.
	SourceDir string
	// OutDir is a scratch directory the bundler may write to.
	OutDir string
}

// Result locates a bundled lambda.
type Result struct {
	Name string
	// Dir holds the files to package.
	Dir string
	// Output is the bundler's combined output, if any.
	Output string
}

// Bundler builds one lambda.
type Bundler interface {
	Bundle(ctx context.Context, req Request) (Result, error)
}

// Error reports a failed bundler run with its diagnostics.
type Error struct {
	Name   string
	Output string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("bundling %s: %v", e.Name, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// CopyBundler uses the source folder unchanged.
type CopyBundler struct{}

// Bundle returns the source folder as the bundle directory.
func (CopyBundler) Bundle(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	info, err := os.Stat(req.SourceDir)
	if err != nil {
		return Result{}, &Error{Name: req.Name, Err: err}
	}
	if !info.IsDir() {
		return Result{}, &Error{Name: req.Name, Err: fmt.Errorf("%s is not a directory", req.SourceDir)}
	}
	return Result{Name: req.Name, Dir: req.SourceDir}, nil
}

// CommandBundler runs an external command per lambda. The command is split on
// whitespace and the placeholders {src}, {out} and {name} are replaced in
// every argument. The command must leave the bundle in {out}.
type CommandBundler struct {
	Command string
	// Env is appended to the process environment.
	Env []string
}

// Bundle runs the command and returns {out}.
func (b CommandBundler) Bundle(ctx context.Context, req Request) (Result, error) {
	fields := strings.Fields(b.Command)
	if len(fields) == 0 {
		return Result{}, &Error{Name: req.Name, Err: errors.New("empty bundle command")}
	}

	if err := os.MkdirAll(req.OutDir, 0755); err != nil {
		return Result{}, &Error{Name: req.Name, Err: err}
	}

	replacer := strings.NewReplacer("{src}", req.SourceDir, "{out}", req.OutDir, "{name}", req.Name)
	args := make([]string, len(fields))
	for i, f := range fields {
		args[i] = replacer.Replace(f)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = req.SourceDir
	cmd.Env = append(os.Environ(), b.Env...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %v", ctxErr, err)
		}
		return Result{}, &Error{Name: req.Name, Output: out.String(), Err: err}
	}
	return Result{Name: req.Name, Dir: req.OutDir, Output: out.String()}, nil
}

// Requests builds one request per lambda folder under sourceRoot, with
// scratch directories under outRoot.
func Requests(sourceRoot, outRoot string, names []string) []Request {
	reqs := make([]Request, len(names))
	for i, name := range names {
		reqs[i] = Request{
			Name:      name,
			SourceDir: filepath.Join(sourceRoot, name),
			OutDir:    filepath.Join(outRoot, name),
		}
	}
	return reqs
}

// BundleAll runs every request concurrently and waits for all of them.
// Results are returned in request order. The first failure cancels the
// remaining runs. A non-zero timeout bounds the whole batch.
func BundleAll(ctx context.Context, b Bundler, reqs []Request, timeout time.Duration) ([]Result, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	results := make([]Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := b.Bundle(gctx, req)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
