package pkg

import (
	"context"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RetryDelays debounce process churn: after a difference is found the
// listing is captured again after each delay.
var RetryDelays = []time.Duration{
	100 * time.Millisecond,
	300 * time.Millisecond,
	600 * time.Millisecond,
	time.Second,
	0,
}

// Capture lists the running processes and returns their filtered view.
func Capture(ctx context.Context, lister Lister, formatter *Formatter) (*Node, error) {
	processes, err := lister.List(ctx)
	if err != nil {
		return nil, err
	}
	tree, err := BuildTree(processes)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "build process tree")
	}
	logrus.WithField("processes", tree.Len()).Debugln("process tree built")
	return formatter.Build(tree), nil
}

// CaptureFunc returns a fresh serialization on each call.
type CaptureFunc func(ctx context.Context) (string, error)

// Compare returns the changed lines between the expected snapshot and a
// fresh capture.
func Compare(ctx context.Context, expected string, capture CaptureFunc) ([]DiffLine, error) {
	actual, err := capture(ctx)
	if err != nil {
		return nil, err
	}
	return Changes(Diff(expected, actual)), nil
}

// CompareWithRetry compares again after each of delays for as long as
// differences remain, and returns the last result.
func CompareWithRetry(ctx context.Context, expected string, capture CaptureFunc, delays []time.Duration) ([]DiffLine, error) {
	changes, err := Compare(ctx, expected, capture)
	for attempt, delay := range delays {
		if err != nil || len(changes) == 0 {
			break
		}
		logrus.WithFields(logrus.Fields{
			"attempt": attempt + 1,
			"changes": len(changes),
			"delay":   delay,
		}).Debugln("differences found, retrying")
		if delay > 0 {
			select {
			case <-ctx.Done():
				return changes, ctx.Err()
			case <-time.After(delay):
			}
		}
		changes, err = Compare(ctx, expected, capture)
	}
	return changes, err
}
