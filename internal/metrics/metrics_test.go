package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAuthEvent(t *testing.T) {
	success := AuthEventsTotal.WithLabelValues(EventLogin, ResultSuccess)
	failure := AuthEventsTotal.WithLabelValues(EventLogin, ResultFailure)
	beforeSuccess := testutil.ToFloat64(success)
	beforeFailure := testutil.ToFloat64(failure)

	RecordAuthEvent(EventLogin, nil)
	RecordAuthEvent(EventLogin, errors.New("bad password"))
	RecordAuthEvent(EventLogin, errors.New("bad password"))

	assert.Equal(t, beforeSuccess+1, testutil.ToFloat64(success))
	assert.Equal(t, beforeFailure+2, testutil.ToFloat64(failure))
}

func TestRecordEmailFailure(t *testing.T) {
	c := EmailFailuresTotal.WithLabelValues("welcome")
	before := testutil.ToFloat64(c)

	RecordEmailFailure("welcome")

	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
