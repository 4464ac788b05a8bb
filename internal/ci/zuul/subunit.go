package zuul

import (
	"bytes"
	"context"
	"strings"

	"github.com/go-cmd/cmd"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DefaultSubunitCommand is the converter shipped with python-subunit.
const DefaultSubunitCommand = "subunit2junitxml"

// SubunitConverter pipes subunit streams through an external command.
type SubunitConverter struct {
	Command string
	Args    []string
}

func NewSubunitConverter() *SubunitConverter {
	return &SubunitConverter{Command: DefaultSubunitCommand}
}

func (s *SubunitConverter) Convert(ctx context.Context, subunit []byte) ([]byte, error) {
	c := cmd.NewCmd(s.Command, s.Args...)
	status := c.StartWithStdin(bytes.NewReader(subunit))

	select {
	case done := <-status:
		// subunit2junitxml exits 1 when the stream holds failed tests
		if done.Complete && done.Error == nil && len(done.Stdout) > 0 {
			log.WithField("exit", done.Exit).Debug("Conversion successful")
			return []byte(strings.Join(done.Stdout, "\n") + "\n"), nil
		}
		return nil, errors.Errorf("failed to run %q: exit=%d err=%v stderr=%s",
			done.Cmd, done.Exit, done.Error, strings.Join(done.Stderr, "\n"))
	case <-ctx.Done():
		_ = c.Stop()
		return nil, ctx.Err()
	}
}
