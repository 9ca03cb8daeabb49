package review

import "testing"

func TestScanGuard_StaleTicketIgnored(t *testing.T) {
	var g scanGuard

	first, ok := g.TryBeginScan()
	if !ok {
		t.Fatal("first scan refused")
	}
	if _, ok := g.TryBeginScan(); ok {
		t.Fatal("second scan admitted while first runs")
	}
	first.End()
	if g.State() != Idle {
		t.Fatalf("state = %v, want idle", g.State())
	}

	second, ok := g.TryBeginScan()
	if !ok {
		t.Fatal("scan refused after End")
	}
	first.End()
	if g.State() != Scanning {
		t.Errorf("stale End reset the running scan: state = %v", g.State())
	}

	second.End()
	second.End()
	if g.State() != Idle {
		t.Errorf("state = %v, want idle", g.State())
	}
}
