package ffmpeg

import "testing"

func TestParseFrameRate(t *testing.T) {
	t.Parallel()

	cases := map[string]float64{
		"30/1":       30,
		"25/1":       25,
		"":           0,
		"0/0":        0,
		"bad":        0,
		"30000/1001": 29.97002997002997,
	}
	for in, want := range cases {
		if got := parseFrameRate(in); got != want {
			t.Fatalf("parseFrameRate(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTail(t *testing.T) {
	t.Parallel()

	short := []byte("all of it")
	if got := tail(short); got != "all of it" {
		t.Fatalf("got %q", got)
	}

	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'x'
	}
	got := tail(long)
	if len(got) != 3+2048 {
		t.Fatalf("unexpected tail length %d", len(got))
	}
	if got[:3] != "..." {
		t.Fatalf("expected ellipsis prefix, got %q", got[:10])
	}
}
