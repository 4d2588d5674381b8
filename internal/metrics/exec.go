package metrics

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// runCommand executes a system utility and returns its standard output. The
// error carries the utility name so chain diagnostics stay readable.
func runCommand(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return string(out), nil
}

// diskFromDF reports root-filesystem usage via df. POSIX output mode keeps
// every mount on a single line regardless of device-name width.
func diskFromDF() (int, error) {
	out, err := runCommand("df", "-P", "/")
	if err != nil {
		return 0, err
	}
	return parseDFUsedPercent(out)
}

// parseDFUsedPercent extracts the capacity column from df output. The
// percent field is located from the right: device names may themselves
// contain spaces, the trailing columns never do.
func parseDFUsedPercent(out string) (int, error) {
	var last string
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) != "" {
			last = line
		}
	}
	fields := strings.Fields(last)
	for i := len(fields) - 1; i >= 0; i-- {
		f := fields[i]
		if !strings.HasSuffix(f, "%") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(f, "%"))
		if err != nil {
			return 0, fmt.Errorf("df capacity field %q: %w", f, err)
		}
		return n, nil
	}
	return 0, errors.New("df: no capacity field")
}
