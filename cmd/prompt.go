package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// runSettings is what the user confirms before anything is written.
type runSettings struct {
	ImageDir  string
	DBDir     string
	Catalog   string
	Recursive bool
	MetaTags  bool
	DryRun    bool
}

// confirm prints the settings and reads one answer. Only "n" (any case)
// cancels; an empty answer or end of input proceeds.
func confirm(in io.Reader, out io.Writer, s runSettings) (bool, error) {
	fmt.Fprintf(out, "Images will be processed in the directory: %s\n", s.ImageDir)
	if s.Recursive {
		fmt.Fprintln(out, "Folders will be recursively traversed.")
	}
	if s.MetaTags {
		fmt.Fprintln(out, "Picasa albums and faces will become tags.")
	}
	if s.DryRun {
		fmt.Fprintln(out, "Dry run: the catalog will not be modified.")
	}
	fmt.Fprintf(out, "Your digiKam catalog is: %s\n", s.Catalog)
	fmt.Fprintln(out, "Is this correct? (Enter 'n' to cancel. Enter anything else to proceed.)")

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.ToLower(strings.TrimSpace(answer)) != "n", nil
}
