package cohlog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterSuppressesMatchingLines(t *testing.T) {
	r := NewRing(8)
	AddRing("filtertest", r, DEBUG)
	defer RemoveLogger("filtertest")

	Debugln("test 123")
	require.Contains(t, r.Dump()[0], "test 123")

	AddFilter("filtertest", "test 456")
	Debugln("test 456")
	require.Len(t, r.Dump(), 1, "filtered line should not reach the sink")
}

func TestMultipleSinksReceiveTheSameLine(t *testing.T) {
	r1, r2 := NewRing(4), NewRing(4)
	AddRing("multi1", r1, DEBUG)
	AddRing("multi2", r2, DEBUG)
	defer RemoveLogger("multi1")
	defer RemoveLogger("multi2")

	Debugln("test 123")

	require.Contains(t, r1.Dump()[0], "test 123")
	require.Contains(t, r2.Dump()[0], "test 123")
}

func TestLevelFloorSuppressesLowerSeverity(t *testing.T) {
	r := NewRing(4)
	AddRing("leveltest", r, INFO)
	defer RemoveLogger("leveltest")

	Debugln("below floor")
	require.Empty(t, r.Dump())

	Infoln("at floor")
	require.Len(t, r.Dump(), 1)
}

func TestRemoveLoggerStopsFurtherDelivery(t *testing.T) {
	r := NewRing(4)
	AddRing("removetest", r, DEBUG)

	Debugln("before removal")
	require.Len(t, r.Dump(), 1)

	RemoveLogger("removetest")
	Debugln("after removal")
	require.Len(t, r.Dump(), 1, "line logged after RemoveLogger should not appear")
}

func TestWillLogReflectsEveryRegisteredLogger(t *testing.T) {
	r := NewRing(4)
	AddRing("willlogtest", r, ERROR)
	defer RemoveLogger("willlogtest")

	require.True(t, WillLog(FATAL))
	require.False(t, WillLog(DEBUG), "no registered logger accepts DEBUG right now")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DEBUG,
		"info":    INFO,
		"warn":    WARN,
		"warning": WARN,
		"error":   ERROR,
		"fatal":   FATAL,
	}
	for s, want := range cases {
		got, ok := ParseLevel(s)
		require.True(t, ok, s)
		require.Equal(t, want, got, s)
	}

	_, ok := ParseLevel("nonsense")
	require.False(t, ok)
}

func TestSetColorTogglesPrologueEscapes(t *testing.T) {
	r := NewRing(4)
	AddRing("colortest", r, DEBUG)
	defer RemoveLogger("colortest")

	SetColor("colortest", true)
	Infoln("colored")
	require.Contains(t, r.Dump()[0], "\x1b[")

	RemoveLogger("colortest")
	AddRing("colortest", r, DEBUG)
	SetColor("colortest", false)
	Infoln("plain")
	require.NotContains(t, r.Dump()[1], "\x1b[")
}
