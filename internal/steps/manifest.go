package steps

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/BurntSushi/toml"
)

// Environment variables set for every exec invocation.
const (
	EnvWorkDir = "FMRIMAP_WORKDIR"
	EnvDataset = "FMRIMAP_DATASET"
	EnvRun     = "FMRIMAP_RUN"
	EnvMethod  = "FMRIMAP_METHOD"
)

// Manifest is the decoded steps manifest.
type Manifest struct {
	Collaborators []CollaboratorSpec `toml:"collaborator"`
}

// CollaboratorSpec declares one command-backed collaborator.
type CollaboratorSpec struct {
	Name       string            `toml:"name"`
	Command    string            `toml:"command"`
	Args       []string          `toml:"args"`
	Env        map[string]string `toml:"env"`
	Operations []OperationSpec   `toml:"operation"`
}

// OperationSpec declares one operation and the files it produces.
type OperationSpec struct {
	Name    string   `toml:"name"`
	Outputs []string `toml:"outputs"`
}

// LoadManifest decodes and validates the manifest at path. A missing file
// returns an error satisfying os.IsNotExist.
func LoadManifest(path string) (*Manifest, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	var m Manifest
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidManifest, path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%w: %s: unknown keys %v", ErrInvalidManifest, path, undecoded)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

// Validate checks names and commands.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool)
	for i, c := range m.Collaborators {
		if c.Name == "" {
			return fmt.Errorf("%w: collaborator %d has no name", ErrInvalidManifest, i+1)
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate collaborator %q", ErrInvalidManifest, c.Name)
		}
		seen[c.Name] = true
		if c.Command == "" {
			return fmt.Errorf("%w: collaborator %q has no command", ErrInvalidManifest, c.Name)
		}

		ops := make(map[string]bool)
		for _, op := range c.Operations {
			if op.Name == "" {
				return fmt.Errorf("%w: collaborator %q has an unnamed operation", ErrInvalidManifest, c.Name)
			}
			if ops[op.Name] {
				return fmt.Errorf("%w: collaborator %q declares %q twice", ErrInvalidManifest, c.Name, op.Name)
			}
			ops[op.Name] = true
		}
	}
	return nil
}

// Build returns one ExecCollaborator per declared collaborator, in
// manifest order.
func (m *Manifest) Build(stdout, stderr io.Writer) []Collaborator {
	out := make([]Collaborator, 0, len(m.Collaborators))
	for _, spec := range m.Collaborators {
		out = append(out, NewExecCollaborator(spec, stdout, stderr))
	}
	return out
}

// ExecCollaborator runs "command args... op invocation-args..." in the
// invocation's work directory.
type ExecCollaborator struct {
	spec   CollaboratorSpec
	stdout io.Writer
	stderr io.Writer
}

// NewExecCollaborator returns a collaborator for spec. Nil writers default
// to os.Stderr so operator prompts on stdout stay readable.
func NewExecCollaborator(spec CollaboratorSpec, stdout, stderr io.Writer) *ExecCollaborator {
	if stdout == nil {
		stdout = os.Stderr
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &ExecCollaborator{spec: spec, stdout: stdout, stderr: stderr}
}

func (c *ExecCollaborator) Name() string {
	return c.spec.Name
}

func (c *ExecCollaborator) ListOperations(ctx context.Context) ([]string, error) {
	ops := make([]string, len(c.spec.Operations))
	for i, op := range c.spec.Operations {
		ops[i] = op.Name
	}
	return ops, nil
}

func (c *ExecCollaborator) ExpectedOutputs(op string) []string {
	for _, o := range c.spec.Operations {
		if o.Name == op {
			return o.Outputs
		}
	}
	return nil
}

func (c *ExecCollaborator) has(op string) bool {
	for _, o := range c.spec.Operations {
		if o.Name == op {
			return true
		}
	}
	return false
}

// Invoke blocks until the command exits. There is no timeout beyond ctx.
func (c *ExecCollaborator) Invoke(ctx context.Context, op string, inv Invocation) error {
	if !c.has(op) {
		return fmt.Errorf("%w: %s/%s", ErrUnknownOperation, c.spec.Name, op)
	}

	args := make([]string, 0, len(c.spec.Args)+1+len(inv.Args))
	args = append(args, c.spec.Args...)
	args = append(args, op)
	args = append(args, inv.Args...)

	cmd := exec.CommandContext(ctx, c.spec.Command, args...)
	cmd.Dir = inv.WorkDir
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr
	cmd.Env = os.Environ()
	for k, v := range c.spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Env = append(cmd.Env,
		EnvWorkDir+"="+inv.WorkDir,
		EnvDataset+"="+inv.Dataset,
		EnvRun+"="+inv.Run,
		EnvMethod+"="+inv.Method,
	)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", c.spec.Name, op, err)
	}
	return nil
}
