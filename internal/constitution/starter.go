package constitution

// Starter is the starter constitution text `acp init` writes when no
// constitution file exists yet. It satisfies RequiredSections out of the
// box and gives a project somewhere concrete to start editing from; the
// sample principle text itself is explicitly out of scope per spec.md §1,
// so this is deliberately minimal scaffolding rather than a prescriptive
// set of rules.
const Starter = `# Project Constitution

## Core Principles

- Principle 1: describe a non-negotiable rule this project's artifacts
  must satisfy.

## Quality Standards

- Generated specs, plans, and code must be reviewed against this document
  before being accepted.
`
