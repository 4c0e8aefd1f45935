package stats

import (
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestRunningStat(t *testing.T) {
	is := is.New(t)
	type tc struct {
		samples []int
		mean    float64
		stdev   float64
	}
	cases := []tc{
		{[]int{10, 12, 23, 23, 16, 23, 21, 16}, 18, 5.2372293656638},
		{[]int{14, 35, 71, 124, 10, 24, 55, 33, 87, 19}, 47.2, 36.937785531891},
		{[]int{1}, 1, 0},
		{[]int{}, 0, 0},
		{[]int{1, 1}, 1, 0},
	}
	for _, c := range cases {
		s := &Statistic{}
		for _, v := range c.samples {
			s.Push(float64(v))
		}
		is.True(FuzzyEqual(s.Mean(), c.mean))
		is.True(FuzzyEqual(s.Stdev(), c.stdev))
		is.Equal(s.Iterations(), len(c.samples))
	}
}

func TestMinMaxLast(t *testing.T) {
	is := is.New(t)
	s := &Statistic{}
	for _, v := range []float64{7, -2, 30, 4} {
		s.Push(v)
	}
	is.Equal(s.Min(), -2.0)
	is.Equal(s.Max(), 30.0)
	is.Equal(s.Last(), 4.0)
}

func TestPushDuration(t *testing.T) {
	is := is.New(t)
	s := &Statistic{}
	s.PushDuration(1500 * time.Millisecond)
	s.PushDuration(500 * time.Millisecond)
	is.True(FuzzyEqual(s.Mean(), 1000))
}

func TestConfidenceInterval(t *testing.T) {
	is := is.New(t)
	is.True(FuzzyEqual(ZVal(95), 1.959963984540054))
	s := &Statistic{}
	is.Equal(s.ConfidenceInterval(95), 0.0)
	for _, v := range []float64{10, 12, 23, 23, 16, 23, 21, 16} {
		s.Push(v)
	}
	is.True(s.ConfidenceInterval(99) > s.ConfidenceInterval(95))
	is.True(FuzzyEqual(s.ConfidenceInterval(95), ZVal(95)*s.StandardError()))
}

func TestZVal(t *testing.T) {
	is := is.New(t)
	is.True(FuzzyEqual(ZVal(0), 0))
	is.True(FuzzyEqual(ZVal(90), 1.6448536269514722))
	is.True(FuzzyEqual(ZVal(99), 2.5758293035489004))
}
