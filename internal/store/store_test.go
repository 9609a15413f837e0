package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpov/razborka/internal/model"
)

func TestCurrentNeverNil(t *testing.T) {
	s := New()
	snap := s.Current()
	require.NotNil(t, snap)
	assert.True(t, snap.Ledger.Empty())
	for _, flow := range model.Flows() {
		require.NotNil(t, snap.Tables[flow])
	}
}

func TestPublishReplaces(t *testing.T) {
	s := New()
	old := s.Current()

	next := Empty()
	next.BuiltAt = time.Now()
	s.Publish(next)

	assert.Same(t, next, s.Current())
	// The old snapshot stays valid for readers that captured it.
	assert.True(t, old.Ledger.Empty())
}

func TestPublishNilIgnored(t *testing.T) {
	s := New()
	old := s.Current()
	s.Publish(nil)
	assert.Same(t, old, s.Current())
}
