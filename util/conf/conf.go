package conf

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Conf holds the non-empty, non-comment lines of a line oriented
// configuration file, such as a list of dependency labels.
type Conf struct {
	Values []string
}

func Read(reader io.Reader) (*Conf, error) {
	scanner := bufio.NewScanner(reader)
	retval := make([]string, 0, 64)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(line) > 0 && line[0] != '#' {
			retval = append(retval, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading configuration")
	}
	return &Conf{retval}, nil
}

func ReadFile(filename string) (*Conf, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", filename)
	}
	defer file.Close()

	return Read(file)
}
