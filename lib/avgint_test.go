package lib

import "testing"

func TestAverageInt(t *testing.T) {
	avg := &AverageInt64{}

	if mean := avg.Mean(); mean != 0 {
		t.Errorf("expected 0, got %v", mean)
	} else if variance := avg.Variance(); variance != 0 {
		t.Errorf("expected 0, got %v", variance)
	} else if sd := avg.SD(); sd != 0 {
		t.Errorf("expected 0, got %v", sd)
	}

	for i := 1; i <= 100; i++ {
		avg.Add(int64(i))
	}
	if x, y := int64(1), avg.Min(); x != y {
		t.Errorf("Min() expected %v, got %v", x, y)
	} else if x, y := int64(100), avg.Max(); x != y {
		t.Errorf("Max() expected %v, got %v", x, y)
	} else if x, y := int64(100), avg.Samples(); x != y {
		t.Errorf("Samples() expected %v, got %v", x, y)
	} else if x, y := int64(100*101)/2, avg.Sum(); x != y {
		t.Errorf("Sum() expected %v, got %v", x, y)
	} else if x, y := int64(50), avg.Mean(); x != y {
		t.Errorf("Mean() expected %v, got %v", x, y)
	} else if x, y := int64(833), avg.Variance(); x != y {
		t.Errorf("Variance() expected %v, got %v", x, y)
	} else if x, y := int64(28), avg.SD(); x != y {
		t.Errorf("SD() expected %v, got %v", x, y)
	}

	stats := avg.Stats()
	if x, y := int64(1), stats["min"].(int64); x != y {
		t.Errorf("min expected %v, got %v", x, y)
	} else if x, y := int64(100), stats["max"].(int64); x != y {
		t.Errorf("max expected %v, got %v", x, y)
	} else if x, y := int64(100), stats["samples"].(int64); x != y {
		t.Errorf("samples expected %v, got %v", x, y)
	} else if x, y := int64(5050), stats["sum"].(int64); x != y {
		t.Errorf("sum expected %v, got %v", x, y)
	}
}

func TestAverageIntLarge(t *testing.T) {
	avg := &AverageInt64{}
	avg.Add(-4)
	avg.Add(4)
	if x := avg.Mean(); x != 0 {
		t.Errorf("expected %v, got %v", 0, x)
	} else if x := avg.Variance(); x != 16 {
		t.Errorf("expected %v, got %v", 16, x)
	} else if x := avg.SD(); x != 4 {
		t.Errorf("expected %v, got %v", 4, x)
	} else if x := avg.Min(); x != -4 {
		t.Errorf("expected %v, got %v", -4, x)
	}

	// squares of nanosecond scale samples exceed int64.
	avg = &AverageInt64{}
	for i := 0; i < 1000; i++ {
		avg.Add(int64(1) << 40)
	}
	if x := avg.Mean(); x != int64(1)<<40 {
		t.Errorf("expected %v, got %v", int64(1)<<40, x)
	} else if x := avg.SD(); x != 0 {
		t.Errorf("expected %v, got %v", 0, x)
	}
}
