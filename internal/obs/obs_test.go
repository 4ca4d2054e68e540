package obs

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestStdoutProviderCapturesAttachSpan(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewStdoutProvider(&buf)
	require.NoError(t, err)
	prevTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prevTP)

	_, span := StartAttach(context.Background(), "queen")
	EndWithError(span, nil)
	require.NoError(t, tp.Shutdown(context.Background()))

	require.Contains(t, buf.String(), "session.attach")
}

func TestStdoutProviderRecordsDispatchError(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewStdoutProvider(&buf)
	require.NoError(t, err)
	prevTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prevTP)

	_, span := StartDispatch(context.Background(), "TAIL")
	EndWithError(span, errors.New("not-attached"))
	require.NoError(t, tp.Shutdown(context.Background()))

	require.Contains(t, buf.String(), "console.dispatch")
	require.Contains(t, buf.String(), "not-attached")
}

func TestCorrelationIDsAreUnique(t *testing.T) {
	a := CorrelationID()
	b := CorrelationID()
	require.NotEqual(t, a, b)
}
