package cmd

import (
	"bufio"
	"fmt"
	"os"
)

// confirmIfExists checks that a file exists, and asks the user for
// confirmation before continuing.
//
// It returns true if the file doesn't exist, or if the user answered
// yes to the confirmation msg printed on the command line. If ok is
// false or err is not nil, the operation on path should be aborted.
func confirmIfExists(path, msg string) (ok bool, err error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	return askForConfirmation(msg), nil
}

// askForConfirmation prints msg and waits for the user to type y or n;
// ENTER alone defaults to no.
func askForConfirmation(msg string) bool {
	fmt.Println(msg)
	reader := bufio.NewReader(os.Stdin)
	const defaultInput = 'N'

	for {
		input, _ := reader.ReadString('\n')
		if len(input) == 0 {
			return false
		}
		c := input[0]
		if c == '\n' {
			c = defaultInput
		}
		switch c {
		case 'Y', 'y':
			return true
		case 'N', 'n':
			return false
		}
	}
}
