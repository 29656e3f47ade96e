package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session engine counters, exported at /metrics alongside the default Go and
// process collectors.
var (
	QuestionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pollwave_questions_started_total",
		Help: "Number of poll questions started.",
	})

	AnswersAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pollwave_answers_accepted_total",
		Help: "Number of student answers accepted.",
	})

	AnswersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pollwave_answers_rejected_total",
		Help: "Number of student answers rejected, by reason.",
	}, []string{"reason"})

	ResultsShown = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pollwave_results_shown_total",
		Help: "Number of result broadcasts, by trigger (timeout or all_answered).",
	}, []string{"trigger"})

	ConnectedStudents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pollwave_connected_students",
		Help: "Number of students currently joined.",
	})
)
