package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordGeneration(t *testing.T) {
	c := generations.WithLabelValues("task", OutcomeFallback)
	before := testutil.ToFloat64(c)

	RecordGeneration("task", OutcomeFallback, 10*time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestRecordEngagement(t *testing.T) {
	committed := engagementMutations.WithLabelValues("vote", OutcomeCommitted)
	rolled := engagementMutations.WithLabelValues("vote", OutcomeRolledBack)
	c0, r0 := testutil.ToFloat64(committed), testutil.ToFloat64(rolled)

	RecordEngagement("vote", true)
	RecordEngagement("vote", false)
	RecordEngagement("vote", false)

	assert.Equal(t, c0+1, testutil.ToFloat64(committed))
	assert.Equal(t, r0+2, testutil.ToFloat64(rolled))
}

func TestRecordIssueMirror(t *testing.T) {
	failed := issuesMirrored.WithLabelValues("created", "error")
	before := testutil.ToFloat64(failed)

	RecordIssueMirror("created", errors.New("boom"))

	assert.Equal(t, before+1, testutil.ToFloat64(failed))
}
