package timer

import "testing"

func TestCountdownFiresExactlyOnce(t *testing.T) {
	t.Parallel()

	c := Start(3)
	fired := 0
	c.OnDeadline(func() { fired++ })

	for i := 0; i < 10; i++ {
		c.Tick()
	}

	if fired != 1 {
		t.Fatalf("expected deadline to fire once, fired %d times", fired)
	}
	if c.Remaining() != 0 {
		t.Fatalf("expected 0 remaining, got %d", c.Remaining())
	}
}

func TestCountdownRemainingDecrementsPerTick(t *testing.T) {
	t.Parallel()

	c := Start(5)
	if !c.Tick() {
		t.Fatal("expected countdown to keep running")
	}
	c.Tick()
	if got := c.Remaining(); got != 3 {
		t.Fatalf("expected 3 remaining, got %d", got)
	}
}

func TestCountdownPauseResume(t *testing.T) {
	t.Parallel()

	c := Start(2)
	c.Pause()
	c.Tick()
	c.Tick()
	if got := c.Remaining(); got != 2 {
		t.Fatalf("paused countdown advanced to %d", got)
	}

	c.Resume()
	c.Tick()
	if got := c.Remaining(); got != 1 {
		t.Fatalf("expected 1 remaining after resume, got %d", got)
	}
}

func TestCountdownCancelSuppressesDeadline(t *testing.T) {
	t.Parallel()

	c := Start(1)
	fired := false
	c.OnDeadline(func() { fired = true })
	c.Cancel()
	c.Tick()

	if fired {
		t.Fatal("cancelled countdown fired its deadline")
	}
}

func TestCountdownCancelAfterDeadlineIsNoop(t *testing.T) {
	t.Parallel()

	c := Start(1)
	fired := 0
	c.OnDeadline(func() { fired++ })
	c.Tick()
	c.Cancel()
	c.Tick()

	if fired != 1 || c.Remaining() != 0 {
		t.Fatalf("fired=%d remaining=%d after cancel past deadline", fired, c.Remaining())
	}
}
