// Package puzzle decodes the one-machine-per-line text format:
//
//	[.##.] (3) (1,3) (2) (2,3) (0,2) (0,1) {3,5,4,7}
//
// The bracket section is the toggle target ('#' on, '.' off), each
// parenthesized list is a button and the braced list is the counter target.
// Either target may be omitted, but not both.
package puzzle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gitrdm/presskit/pkg/machine"
)

// ErrSyntax marks malformed input.
var ErrSyntax = errors.New("syntax error")

// Parse reads machines from r, skipping blank lines. Errors name the 1-based
// line number.
func Parse(r io.Reader) ([]*machine.Machine, error) {
	var out []*machine.Machine
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		m, err := ParseLine(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, m)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return out, nil
}

// ParseLine decodes a single machine.
func ParseLine(s string) (*machine.Machine, error) {
	var (
		lights  machine.ToggleVector
		counter machine.CounterVector
		buttons [][]int
	)
	for _, tok := range strings.Fields(s) {
		switch {
		case strings.HasPrefix(tok, "["):
			if lights != nil {
				return nil, fmt.Errorf("%w: second toggle section %q", ErrSyntax, tok)
			}
			body, err := enclosed(tok, '[', ']')
			if err != nil {
				return nil, err
			}
			lights = make(machine.ToggleVector, len(body))
			for i, c := range body {
				switch c {
				case '#':
					lights[i] = true
				case '.':
				default:
					return nil, fmt.Errorf("%w: unexpected %q in toggle section", ErrSyntax, c)
				}
			}
		case strings.HasPrefix(tok, "("):
			body, err := enclosed(tok, '(', ')')
			if err != nil {
				return nil, err
			}
			idx, err := ints(body)
			if err != nil {
				return nil, err
			}
			buttons = append(buttons, idx)
		case strings.HasPrefix(tok, "{"):
			if counter != nil {
				return nil, fmt.Errorf("%w: second counter section %q", ErrSyntax, tok)
			}
			body, err := enclosed(tok, '{', '}')
			if err != nil {
				return nil, err
			}
			vals, err := ints(body)
			if err != nil {
				return nil, err
			}
			counter = machine.CounterVector(vals)
		default:
			return nil, fmt.Errorf("%w: unexpected section %q", ErrSyntax, tok)
		}
	}

	dim := len(lights)
	if lights == nil {
		dim = len(counter)
	}
	actions := make([]machine.Action, len(buttons))
	for i, b := range buttons {
		a, err := machine.NewButton(dim, b...)
		if err != nil {
			return nil, fmt.Errorf("button %d: %w", i, err)
		}
		actions[i] = a
	}
	return machine.New(lights, counter, actions)
}

func enclosed(tok string, left, right byte) (string, error) {
	if len(tok) < 2 || tok[0] != left || tok[len(tok)-1] != right {
		return "", fmt.Errorf("%w: section %q is not enclosed in %c%c", ErrSyntax, tok, left, right)
	}
	return tok[1 : len(tok)-1], nil
}

func ints(body string) ([]int, error) {
	if body == "" {
		return []int{}, nil
	}
	parts := strings.Split(body, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrSyntax, p)
		}
		out[i] = n
	}
	return out, nil
}
