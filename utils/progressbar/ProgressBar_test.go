package progressbar_test

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/samuelfneumann/gymclient/utils/progressbar"
)

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := progressbar.New(&buf, 10, 4)

	bar.Increment()
	bar.Increment()
	bar.Display()
	if out := buf.String(); !strings.Contains(out, "|█████     |") ||
		!strings.Contains(out, "50.00%") {
		t.Errorf("display = %q", out)
	}

	for i := 0; i < 10; i++ {
		bar.Increment()
	}
	if bar.Progress() != 4 {
		t.Errorf("progress = %d, want 4", bar.Progress())
	}

	buf.Reset()
	bar.Close()
	out := buf.String()
	if !strings.Contains(out, "100.00%") || !strings.HasSuffix(out, "\n") {
		t.Errorf("close = %q", out)
	}

	buf.Reset()
	bar.Display()
	if buf.Len() != 0 {
		t.Errorf("display after close wrote %q", buf.String())
	}
}

func TestProgressBarConcurrent(t *testing.T) {
	var buf bytes.Buffer
	bar := progressbar.New(&buf, 20, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				bar.Increment()
			}
		}()
	}
	wg.Wait()

	if bar.Progress() != 500 {
		t.Errorf("progress = %d, want 500", bar.Progress())
	}
}

func TestCloseTwice(t *testing.T) {
	bar := progressbar.New(&bytes.Buffer{}, 5, 5)
	bar.Close()

	defer func() {
		if recover() == nil {
			t.Error("closing a closed progress bar should panic")
		}
	}()
	bar.Close()
}
