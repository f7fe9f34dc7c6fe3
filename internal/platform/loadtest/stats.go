package loadtest

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"sync"
	"time"
)

// Stats collects request outcomes from concurrent workers.
type Stats struct {
	mu        sync.Mutex
	total     int64
	succeeded int64
	timedOut  int64
	failed    int64
	latencies []time.Duration
	start     time.Time
	end       time.Time
}

func (s *Stats) add(latency time.Duration, success, timeout bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	switch {
	case timeout:
		s.timedOut++
	case success:
		s.succeeded++
	default:
		s.failed++
	}
	s.latencies = append(s.latencies, latency)
}

func (s *Stats) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *Stats) Succeeded() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.succeeded
}

func (s *Stats) SuccessRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.total == 0 {
		return 0
	}
	return float64(s.succeeded) / float64(s.total) * 100
}

func (s *Stats) RPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	elapsed := s.end.Sub(s.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(s.total) / elapsed
}

// Percentile returns the latency below which the fraction p of requests fall.
func (s *Stats) Percentile(p float64) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.latencies) == 0 {
		return 0
	}
	slices.Sort(s.latencies)
	i := int(float64(len(s.latencies)) * p)
	if i >= len(s.latencies) {
		i = len(s.latencies) - 1
	}
	return s.latencies[i]
}

func (s *Stats) meanAndStdDev() (time.Duration, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.latencies) == 0 {
		return 0, 0
	}
	var sum time.Duration
	for _, l := range s.latencies {
		sum += l
	}
	mean := sum / time.Duration(len(s.latencies))
	var variance float64
	for _, l := range s.latencies {
		d := float64(l - mean)
		variance += d * d
	}
	variance /= float64(len(s.latencies))
	return mean, time.Duration(math.Sqrt(variance))
}

func (s *Stats) Report(w io.Writer) {
	rule := strings.Repeat("=", 60)
	mean, stdDev := s.meanAndStdDev()
	s.mu.Lock()
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "duration:     %v\n", s.end.Sub(s.start).Round(time.Millisecond))
	fmt.Fprintf(w, "requests:     %d\n", s.total)
	fmt.Fprintf(w, "succeeded:    %d\n", s.succeeded)
	fmt.Fprintf(w, "failed:       %d\n", s.failed)
	fmt.Fprintf(w, "timed out:    %d\n", s.timedOut)
	s.mu.Unlock()
	fmt.Fprintf(w, "success rate: %.2f%%\n", s.SuccessRate())
	fmt.Fprintf(w, "rps:          %.2f\n", s.RPS())
	for _, p := range []float64{0.5, 0.9, 0.95, 0.99, 0.999} {
		fmt.Fprintf(w, "p%-11v %v\n", p*100, s.Percentile(p))
	}
	fmt.Fprintf(w, "mean:         %v\n", mean)
	fmt.Fprintf(w, "stddev:       %v\n", stdDev)
	fmt.Fprintln(w, rule)
}
