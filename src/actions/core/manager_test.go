package core

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModule struct {
	name    string
	fail    error
	journal *[]string
}

func (f *fakeModule) Name() string { return f.name }

func (f *fakeModule) Start(context.Context) error {
	if f.fail != nil {
		return f.fail
	}
	*f.journal = append(*f.journal, "start "+f.name)
	return nil
}

func (f *fakeModule) Stop(context.Context) {
	*f.journal = append(*f.journal, "stop "+f.name)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestManagerStartStopOrder(t *testing.T) {
	var journal []string
	a := &fakeModule{name: "a", journal: &journal}
	b := &fakeModule{name: "b", journal: &journal}
	m := NewManager(quietLogger(), a, nil)
	require.NoError(t, m.Add(b))

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, []string{"a", "b"}, m.Running())
	assert.Error(t, m.Start(context.Background()))
	assert.Error(t, m.Add(&fakeModule{name: "late", journal: &journal}))

	m.Stop(context.Background())
	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, journal)
	assert.Empty(t, m.Running())
}

func TestManagerRollsBackOnFailure(t *testing.T) {
	var journal []string
	boom := errors.New("boom")
	m := NewManager(quietLogger(),
		&fakeModule{name: "a", journal: &journal},
		&fakeModule{name: "b", fail: boom, journal: &journal},
		&fakeModule{name: "c", journal: &journal},
	)
	err := m.Start(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "module b failed")
	assert.Equal(t, []string{"start a", "stop a"}, journal)

	// nothing is left running, so Stop is a no-op
	m.Stop(context.Background())
	assert.Len(t, journal, 2)
}
