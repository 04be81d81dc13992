package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Maicol2810/sistemanovedades2.0/internal/crud"
	"github.com/Maicol2810/sistemanovedades2.0/internal/domain/rbac"
)

// MetricsObserver публикует итоги мутаций и загрузок в Prometheus.
type MetricsObserver struct {
	mutations    *prometheus.CounterVec
	loadDuration *prometheus.HistogramVec
	loadErrors   *prometheus.CounterVec
}

// NewMetricsObserver регистрирует метрики в reg.
// В тестах передаётся отдельный prometheus.NewRegistry().
func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	o := &MetricsObserver{
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sn_crud_mutations_total",
			Help: "Мутации записей по ресурсу, действию и итогу.",
		}, []string{"resource", "action", "outcome"}),
		loadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sn_crud_load_duration_seconds",
			Help:    "Длительность полной загрузки записей и справочников.",
			Buckets: prometheus.DefBuckets,
		}, []string{"resource"}),
		loadErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sn_crud_load_errors_total",
			Help: "Неудачные загрузки данных экрана.",
		}, []string{"resource"}),
	}
	reg.MustRegister(o.mutations, o.loadDuration, o.loadErrors)
	return o
}

func (o *MetricsObserver) Mutation(resource rbac.Resource, action rbac.Action, outcome string) {
	o.mutations.WithLabelValues(string(resource), string(action), outcome).Inc()
}

func (o *MetricsObserver) Load(resource rbac.Resource, elapsed time.Duration, err error) {
	o.loadDuration.WithLabelValues(string(resource)).Observe(elapsed.Seconds())
	if err != nil {
		o.loadErrors.WithLabelValues(string(resource)).Inc()
	}
}

var _ crud.Observer = (*MetricsObserver)(nil)
