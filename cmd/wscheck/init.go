package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"wscheck/internal/project"
)

const sampleServiceName = "service.svc.yaml"

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new wscheck package",
	Long: `Initialize a new package by creating a manifest (wscheck.toml) and a sample
service description (service.svc.yaml). If [path|name] is omitted, initializes
the current directory. If a non-existing name is provided, a directory will be
created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

// runInit resolves the target directory, creates it when missing and writes
// the manifest and a sample description. An existing manifest is never
// overwritten; an existing sample is kept.
func runInit(cmd *cobra.Command, args []string) error {
	target, err := resolveInitTarget(args)
	if err != nil {
		return err
	}

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err = os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "wscheck-package"
	}

	manifestPath := filepath.Join(target, project.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("package already initialized: %s exists", manifestPath)
	}
	manifest, err := project.Encode(project.Default(name))
	if err != nil {
		return err
	}
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	samplePath := filepath.Join(target, sampleServiceName)
	createdSample := false
	if _, err := os.Stat(samplePath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(samplePath, []byte(sampleService), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", sampleServiceName, err)
		}
		createdSample = true
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized wscheck package in %s\n", displayDir(target, false))
	fmt.Fprintf(out, "  - %s\n", project.ManifestName)
	if createdSample {
		fmt.Fprintf(out, "  - %s\n", sampleServiceName)
	} else {
		fmt.Fprintf(out, "  - %s (existing)\n", sampleServiceName)
	}
	return nil
}

func resolveInitTarget(args []string) (string, error) {
	if len(args) == 0 || args[0] == "." {
		return os.Getwd()
	}
	if filepath.IsAbs(args[0]) {
		return args[0], nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, args[0]), nil
}

// sampleService passes validation: one upgrade resource and a chat service
// with every lifecycle handler.
const sampleService = `imports:
  - module: ballerina/websocket
    alias: ws
  - ballerina/http
listeners:
  - name: chatListener
    type: ws:Listener
    arg: "9090"
services:
  - kind: upgrade
    path: /chat
    listener: chatListener
    functions:
      - qualifier: resource
        method: get
        params:
          - {name: req, type: "http:Request"}
        returns: "ws:Service|ws:UpgradeError"
  - kind: event
    name: ChatService
    includes: [ws:Service]
    functions:
      - qualifier: remote
        name: onOpen
        params:
          - {name: caller, type: "ws:Caller"}
        returns: "error?"
      - qualifier: remote
        name: onTextMessage
        params:
          - {name: caller, type: "ws:Caller"}
          - {name: text, type: string}
        returns: "string|error?"
      - qualifier: remote
        name: onClose
        params:
          - {name: caller, type: "ws:Caller"}
          - {name: statusCode, type: int}
          - {name: reason, type: string}
      - qualifier: remote
        name: onError
        params:
          - {name: caller, type: "ws:Caller"}
          - {name: err, type: "ws:Error"}
`
