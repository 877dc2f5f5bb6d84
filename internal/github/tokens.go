package github

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadTokenFile reads one token per line; blank lines and # comments are skipped.
func ReadTokenFile(path string) ([]string, error) {
	tokens, err := readListFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("token file: %w", err)
	}
	return tokens, nil
}

// ReadProxyFile reads one proxy per line. Bare host:port entries get an
// http:// scheme.
func ReadProxyFile(path string) ([]string, error) {
	proxies, err := readListFile(path, func(line string) string {
		if !strings.Contains(line, "://") {
			return "http://" + line
		}
		return line
	})
	if err != nil {
		return nil, fmt.Errorf("proxy file: %w", err)
	}
	return proxies, nil
}

func readListFile(path string, normalize func(string) string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if normalize != nil {
			line = normalize(line)
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}
	return out, nil
}
