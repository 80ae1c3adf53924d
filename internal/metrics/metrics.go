// Package metrics содержит счётчики Prometheus для диалогов бота.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics счётчики нажатий кнопок и покупок.
type Metrics struct {
	ButtonPresses   *prometheus.CounterVec
	InvalidRequests prometheus.Counter
	RateLimited     prometheus.Counter
	Purchases       *prometheus.CounterVec
	Revenue         prometheus.Counter
	Trials          prometheus.Counter
}

// New создает счётчики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ButtonPresses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "byteport",
			Name:      "button_presses_total",
			Help:      "Button presses by callback code.",
		}, []string{"code"}),
		InvalidRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "byteport",
			Name:      "invalid_requests_total",
			Help:      "Button presses with unknown callback code.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "byteport",
			Name:      "rate_limited_total",
			Help:      "Events rejected by the per-user rate limiter.",
		}),
		Purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "byteport",
			Name:      "purchases_total",
			Help:      "Confirmed purchases by period and devices.",
		}, []string{"months", "devices"}),
		Revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "byteport",
			Name:      "revenue_rub_total",
			Help:      "Sum of confirmed purchase prices.",
		}),
		Trials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "byteport",
			Name:      "trials_total",
			Help:      "Activated trial periods.",
		}),
	}
	reg.MustRegister(m.ButtonPresses, m.InvalidRequests, m.RateLimited, m.Purchases, m.Revenue, m.Trials)
	return m
}

// Purchase учитывает подтверждённую покупку.
func (m *Metrics) Purchase(months, devices, price int) {
	m.Purchases.WithLabelValues(strconv.Itoa(months), strconv.Itoa(devices)).Inc()
	m.Revenue.Add(float64(price))
}
