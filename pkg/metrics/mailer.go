package metrics

import "github.com/prometheus/client_golang/prometheus"

// MailerMetrics counts relay send attempts and terminal failures per template.
type MailerMetrics struct {
	attempts *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// NewMailerMetrics registers the mail delivery metrics on the provided registerer.
func NewMailerMetrics(reg prometheus.Registerer) *MailerMetrics {
	if reg == nil {
		return &MailerMetrics{}
	}
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_send_attempts",
		Help: "Relay send attempts, including retries.",
	}, []string{"template"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mail_send_failures",
		Help: "Relay sends that failed after exhausting retries.",
	}, []string{"template"})
	reg.MustRegister(attempts, failures)
	return &MailerMetrics{attempts: attempts, failures: failures}
}

// IncAttempt counts one delivery attempt for the template.
func (m *MailerMetrics) IncAttempt(template string) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(normalizeLabel(template)).Inc()
}

// IncFailure counts one exhausted delivery for the template.
func (m *MailerMetrics) IncFailure(template string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(template)).Inc()
}
