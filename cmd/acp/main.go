// Command acp drives a feature from a free-text description through
// specification, planning, and test-driven implementation, validating
// every generated artifact against a project constitution before moving
// on. See internal/cli for the command surface.
package main

import "github.com/acpctl/acp/internal/cli"

func main() {
	cli.Execute()
}
