package main

import (
	"bytes"
	"context"
	"io"
	"os"

	pkgerrors "github.com/pkg/errors"

	"github.com/FFengIll/psdiff/pkg"
)

func newFormatter() (*pkg.Formatter, error) {
	formatter, err := pkg.LoadFormatter(config.Override, config.Fragments, &pkg.Builtin{})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "load local filters")
	}
	formatter.Self = int32(os.Getpid())
	for _, f := range formatter.Filters() {
		log.WithField("filter", f.Name()).Debugln("filter enabled")
	}
	return formatter, nil
}

// input is read once so retries see the same listing
var input []byte

func newLister() (pkg.Lister, error) {
	if inputPath == "" {
		return pkg.NewLister(config.Lister)
	}
	if input == nil {
		var err error
		if inputPath == "-" {
			input, err = io.ReadAll(os.Stdin)
		} else {
			input, err = os.ReadFile(inputPath)
		}
		if err != nil {
			return nil, pkgerrors.Wrap(err, "read listing")
		}
	}
	return &pkg.TextLister{Reader: bytes.NewReader(input)}, nil
}

// takeSnapshot captures and filters the running processes.
func takeSnapshot(ctx context.Context) (*pkg.Node, error) {
	lister, err := newLister()
	if err != nil {
		return nil, err
	}
	formatter, err := newFormatter()
	if err != nil {
		return nil, err
	}
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}
	return pkg.Capture(ctx, lister, formatter)
}

func captureText(ctx context.Context) (string, error) {
	root, err := takeSnapshot(ctx)
	if err != nil {
		return "", err
	}
	return pkg.Serialize(root), nil
}
