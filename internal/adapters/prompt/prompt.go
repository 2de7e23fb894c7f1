// Package prompt answers the "proceed without live face verification" question
package prompt

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	dom "enrollcam/internal/services/capture/domain"
)

// Question is shown when no face detector is available
const Question = "Live face detection is not available on this device. Proceed without live check? [y/N] "

// Fixed always gives the same answer; kiosks use it to pin the policy in config
type Fixed bool

// ConfirmUnverified returns the fixed answer
func (f Fixed) ConfirmUnverified(context.Context) (bool, error) { return bool(f), nil }

// Terminal asks on Out and reads one line from In
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

var (
	_ dom.Prompter = Fixed(false)
	_ dom.Prompter = Terminal{}
)

// ConfirmUnverified accepts y or yes; anything else, including EOF, declines
func (t Terminal) ConfirmUnverified(ctx context.Context) (bool, error) {
	if _, err := fmt.Fprint(t.Out, Question); err != nil {
		return false, err
	}
	type answer struct {
		line string
		err  error
	}
	ch := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(t.In).ReadString('\n')
		ch <- answer{line, err}
	}()
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-ch:
		if a.err != nil && a.err != io.EOF {
			return false, a.err
		}
		switch strings.ToLower(strings.TrimSpace(a.line)) {
		case "y", "yes":
			return true, nil
		}
		return false, nil
	}
}
