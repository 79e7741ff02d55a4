// Package main issues service tokens for the write-side endpoints of the
// taskdeck API. It signs with the same secret the server is configured with.
//
// Usage:
//
//	token-generator -subject billing-sync -scopes tasks:mutations,cache:invalidate
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/phrazzld/taskdeck-api/internal/config"
	"github.com/phrazzld/taskdeck-api/internal/service/auth"
)

var knownScopes = []string{auth.ScopeCacheInvalidate, auth.ScopeTaskMutations}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	subject := flag.String("subject", "", "name of the service the token is issued to")
	scopes := flag.String("scopes", auth.ScopeTaskMutations, "comma-separated scopes to grant")
	flag.Parse()

	token, err := generate(*configPath, *subject, *scopes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "token-generator: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

func generate(configPath, subject, scopeList string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("-subject is required")
	}
	scopes, err := parseScopes(scopeList)
	if err != nil {
		return "", err
	}

	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return "", err
	}
	return jwtService.GenerateToken(context.Background(), subject, scopes...)
}

// parseScopes splits a comma-separated list, rejecting unknown scopes.
func parseScopes(list string) ([]string, error) {
	var scopes []string
	for _, s := range strings.Split(list, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !slices.Contains(knownScopes, s) {
			return nil, fmt.Errorf("unknown scope %q (known: %s)", s, strings.Join(knownScopes, ", "))
		}
		if !slices.Contains(scopes, s) {
			scopes = append(scopes, s)
		}
	}
	if len(scopes) == 0 {
		return nil, fmt.Errorf("at least one scope is required")
	}
	return scopes, nil
}
