package prompt

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLine_Choose(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"number", "2\n", 1},
		{"default on empty", "\n", 2},
		{"retry after invalid", "9\nabc\n1\n", 0},
		{"last line without newline", "2", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewLine(strings.NewReader(tt.input), &out)
			got, err := p.Choose(context.Background(), ChooseRequest{
				Title:   "Pairing mode",
				Options: []string{"a", "b", "c"},
				Default: 2,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), " * 3) c")
		})
	}
}

func TestLine_ChooseAbort(t *testing.T) {
	for _, input := range []string{"q\n", "Q\n", ""} {
		p := NewLine(strings.NewReader(input), &bytes.Buffer{})
		_, err := p.Choose(context.Background(), ChooseRequest{Title: "x", Options: []string{"a"}})
		assert.ErrorIs(t, err, ErrAbort)
	}

	_, err := NewLine(strings.NewReader("1\n"), &bytes.Buffer{}).Choose(context.Background(), ChooseRequest{Title: "x"})
	assert.Error(t, err)
}

func TestLine_Input(t *testing.T) {
	var out bytes.Buffer
	p := NewLine(strings.NewReader("  ProjA  \nq\n"), &out)

	got, err := p.Input(context.Background(), InputRequest{Title: "Project name", Suggestions: []string{"ProjA", "ProjB"}})
	require.NoError(t, err)
	assert.Equal(t, "ProjA", got)
	assert.Contains(t, out.String(), "(existing: ProjA, ProjB)")

	_, err = p.Input(context.Background(), InputRequest{Title: "Subproject"})
	assert.ErrorIs(t, err, ErrAbort)
}

func TestLine_InputUsesCompleter(t *testing.T) {
	var out bytes.Buffer
	p := NewLine(strings.NewReader("/data\n"), &out)

	got, err := p.Input(context.Background(), InputRequest{
		Title:    "Root",
		Complete: func(string) []string { return []string{"/data/", "/home/"} },
	})
	require.NoError(t, err)
	assert.Equal(t, "/data", got)
	assert.Contains(t, out.String(), "/data/, /home/")
}

func TestLine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLine(strings.NewReader("1\n"), &bytes.Buffer{}).Input(ctx, InputRequest{Title: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScripted(t *testing.T) {
	s := NewScripted("b", "2", "free text", "q")
	ctx := context.Background()
	req := ChooseRequest{Title: "pick", Options: []string{"a", "b"}}

	got, err := s.Choose(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = s.Choose(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 1, got)

	text, err := s.Input(ctx, InputRequest{Title: "name"})
	require.NoError(t, err)
	assert.Equal(t, "free text", text)

	_, err = s.Input(ctx, InputRequest{Title: "name"})
	assert.ErrorIs(t, err, ErrAbort)

	_, err = s.Input(ctx, InputRequest{Title: "empty"})
	assert.ErrorIs(t, err, ErrAbort)

	assert.Equal(t, []string{"pick", "pick", "name", "name", "empty"}, s.Asked)
	assert.Zero(t, s.Remaining())
}
