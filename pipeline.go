package hsiraw

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/bodgit/hsiraw/raw"
)

// Check the file starts with the signature without reading all of it
func hasSignature(file string) (bool, error) {
	f, err := os.Open(file)
	if err != nil {
		return false, err
	}
	defer f.Close()

	var b [len(raw.Signature)]byte
	if _, err := io.ReadFull(f, b[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, err
	}

	return string(b[:]) == raw.Signature, nil
}

var errWalkCancelled = errors.New("walk cancelled")

// Feed every regular, non-hidden file under base to out until the walk
// finishes or ctx is cancelled. The walk result is sent on the returned
// channel once out is closed.
func findFiles(ctx context.Context, base string, out chan<- string) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		defer close(out)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errWalkCancelled
			}

			return nil
		})
	}()
	return errc
}

// Work out where the outputs for file should go, mirroring the layout under
// base if an output directory is set
func (c *Converter) outputDirectory(base, file string) (string, error) {
	if c.options.Output == "" {
		return filepath.Dir(file), nil
	}

	rel, err := filepath.Rel(base, filepath.Dir(file))
	if err != nil {
		return "", err
	}

	dir := filepath.Join(c.options.Output, rel)
	if err := os.MkdirAll(dir, 0777); err != nil {
		return "", err
	}

	return dir, nil
}

func (c *Converter) scanFile(base, file string) error {
	ok, err := hasSignature(file)
	if err != nil {
		return err
	}
	if !ok {
		c.logger.Printf("Skipping \"%s\", not an HSI Raw image\n", file)
		return nil
	}

	dir, err := c.outputDirectory(base, file)
	if err != nil {
		return err
	}

	return c.convert(file, dir)
}

// Convert files from in until it is closed or ctx is cancelled
func (c *Converter) fileWorker(ctx context.Context, base string, in <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case file, ok := <-in:
			if !ok {
				return nil
			}
			if err := c.scanFile(base, file); err != nil {
				return err
			}
		}
	}
}

// Scan walks path converting every HSI Raw file found. Files without the
// signature are ignored. The first error stops the scan, but Scan only
// returns once every worker has finished.
func (c *Converter) Scan(path string) error {
	base, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	files := make(chan string)
	walkErrc := findFiles(ctx, base, files)

	var wg sync.WaitGroup
	errc := make(chan error, c.options.Workers)
	for i := 0; i < c.options.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.fileWorker(ctx, base, files); err != nil {
				errc <- err
				cancelFunc()
			}
		}()
	}
	wg.Wait()
	close(errc)

	// The walk can only be cancelled by a failing worker, so report that
	// error in preference
	if err := <-errc; err != nil {
		return err
	}
	return <-walkErrc
}
