package cli

import (
	"bufio"
	"os"
	"strings"

	"github.com/turtacn/compoundrank/pkg/errors"
)

// FallbackToken selects the built-in example names instead of an input file.
const FallbackToken = "X"

// FallbackNames is the built-in example batch.
var FallbackNames = []string{
	"Adenosine",
	"Adenocard",
	"BG8967",
	"Bivalirudin",
	"BAYT006267",
	"diflucan",
	"ibrutinib",
	"PC-32765",
}

// ResolveInput maps the single positional argument to a batch of names. arg
// must be the configured input file name or the fallback token in any case.
func ResolveInput(arg, inputFile string) (names []string, source string, err error) {
	switch {
	case strings.EqualFold(arg, FallbackToken):
		return append([]string(nil), FallbackNames...), "fallback", nil
	case arg == inputFile:
		names, err = ReadNames(arg)
		return names, arg, err
	default:
		return nil, "", errors.Newf(errors.ErrCodeUsage, "argument must be %q or %q", inputFile, FallbackToken).WithDetail(arg)
	}
}

// ReadNames reads one compound name per line, trimming surrounding
// whitespace and skipping blank lines.
func ReadNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.ErrCodeInputNotFound, "input file not found").WithDetail(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeInputNotFound, "input file cannot be opened").WithDetail(path)
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			names = append(names, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to read input file").WithDetail(path)
	}
	return names, nil
}
