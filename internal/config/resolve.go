package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os/exec"
	"strings"
)

// ResolveValue expands secret and address references in a config value:
//
//	op://vault/item/field   1Password secret via `op read`
//	srv://record/path       DNS SRV lookup, returned as http://host:port/path
//	$(command)              trimmed shell command output
//	${VAR} or $VAR          environment variable
//
// Anything else is returned unchanged.
func ResolveValue(value string) (string, error) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		return "", nil
	case strings.HasPrefix(value, "op://"):
		return resolveOnePassword(value)
	case strings.HasPrefix(value, "srv://"):
		return resolveSRV(value)
	case strings.HasPrefix(value, "$(") && strings.HasSuffix(value, ")"):
		return runResolver("sh", "-c", value[2:len(value)-1])
	}
	return expandEnv(value), nil
}

func resolveOnePassword(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("1password: invalid reference %s: %w", ref, err)
	}
	args := []string{"read", "op://" + u.Host + u.Path}
	if account := u.Query().Get("account"); account != "" {
		args = append(args, "--account", account)
	}
	out, err := runResolver("op", args...)
	if err != nil {
		return "", fmt.Errorf("1password: %w (is the op CLI installed and signed in?)", err)
	}
	return out, nil
}

// resolveSRV turns srv://_ollama._tcp.example.com/ into the first target of
// the SRV record. Ollama speaks plain HTTP, so the scheme is http.
func resolveSRV(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid srv:// reference: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("srv:// reference missing record: %s", ref)
	}
	_, addrs, err := net.LookupSRV("", "", u.Host)
	if err != nil {
		return "", fmt.Errorf("SRV lookup failed for %s: %w", u.Host, err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("no SRV records found for %s", u.Host)
	}
	target := strings.TrimSuffix(addrs[0].Target, ".")
	return fmt.Sprintf("http://%s:%d%s", target, addrs[0].Port, strings.TrimSuffix(u.Path, "/")), nil
}

func runResolver(name string, args ...string) (string, error) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("%s failed: %s", name, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("%s failed: %w", name, err)
	}
	return strings.TrimSpace(string(out)), nil
}
