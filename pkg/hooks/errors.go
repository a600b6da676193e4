package hooks

import (
	"fmt"
	"sort"
	"strings"
)

// InputMismatchError reports a before-node-run handler returning
// replacement values for dataset names the node never declared.
type InputMismatchError struct {
	Node     string
	Expected []string
	Got      []string
}

func newInputMismatchError(node string, expected, got []string) *InputMismatchError {
	err := &InputMismatchError{
		Node:     node,
		Expected: append([]string{}, expected...),
		Got:      append([]string{}, got...),
	}
	sort.Strings(err.Expected)
	sort.Strings(err.Got)

	return err
}

func (e *InputMismatchError) Error() string {
	return fmt.Sprintf(
		"node %q received unexpected inputs from a before node run hook: expected a subset of [%s], got [%s]",
		e.Node,
		strings.Join(e.Expected, ", "),
		strings.Join(e.Got, ", "),
	)
}
