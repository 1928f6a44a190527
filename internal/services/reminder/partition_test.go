package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/calmerhq/calmer/internal/domain/notification"
	"github.com/calmerhq/calmer/internal/domain/user"
)

func details() *user.NotificationDetails {
	return &user.NotificationDetails{Token: "tok", URL: "https://client.example/notify"}
}

func testWindows() (notification.Window, notification.Window) {
	// Morning band 0..59, evening band -780..-721 (08:00 UTC).
	return Windows(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), 8, 21)
}

func TestPartition_SplitsByWindow(t *testing.T) {
	morning, evening := testWindows()

	cands := []notification.Candidate{
		{UserID: "101", TZOffsetRaw: "0", Details: details()},
		{UserID: "102", TZOffsetRaw: "30", Details: details()},
		{UserID: "103", TZOffsetRaw: "-780", Details: details()},
		{UserID: "104", TZOffsetRaw: "", Details: details()}, // defaults to 0 → morning
	}

	m, e, dropped := Partition(cands, morning, evening, zap.NewNop())
	require.Len(t, m, 3)
	require.Len(t, e, 1)
	require.Zero(t, dropped)
	require.Equal(t, int64(103), e[0].FID)
}

func TestPartition_DropsInvalid(t *testing.T) {
	morning, evening := testWindows()

	cands := []notification.Candidate{
		{UserID: "201", TZOffsetRaw: "800", Details: details()},  // out of ±720
		{UserID: "202", TZOffsetRaw: "-721", Details: details()}, // out of ±720
		{UserID: "203", TZOffsetRaw: "abc", Details: details()},  // non-numeric
		{UserID: "204", TZOffsetRaw: "30", Details: nil},         // missing credential
		{UserID: "not-a-fid", TZOffsetRaw: "30", Details: details()},
		{UserID: "206", TZOffsetRaw: "120", Details: details()}, // valid but in neither band
		{UserID: "207", TZOffsetRaw: "59", Details: details()},  // survivor
	}

	m, e, dropped := Partition(cands, morning, evening, zap.NewNop())
	require.Len(t, m, 1)
	require.Empty(t, e)
	require.Equal(t, 6, dropped)
	require.Equal(t, int64(207), m[0].FID)
}

func TestPartition_BoundaryAtSixty(t *testing.T) {
	morning, evening := testWindows()

	cands := []notification.Candidate{
		{UserID: "301", TZOffsetRaw: "59", Details: details()},
		{UserID: "302", TZOffsetRaw: "60", Details: details()},
	}

	m, _, dropped := Partition(cands, morning, evening, zap.NewNop())
	require.Len(t, m, 1)
	require.Equal(t, int64(301), m[0].FID)
	require.Equal(t, 1, dropped)
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		raw    string
		want   int
		wantOK bool
	}{
		{"", 0, true},
		{"0", 0, true},
		{"-330", -330, true},
		{" 45 ", 45, true},
		{"12.5", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseOffset(tt.raw)
		require.Equal(t, tt.wantOK, ok, "raw %q", tt.raw)
		if ok {
			require.Equal(t, tt.want, got, "raw %q", tt.raw)
		}
	}
}
