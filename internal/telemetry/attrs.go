package telemetry

import "go.opentelemetry.io/otel/attribute"

func attrMode(mode string) attribute.KeyValue {
	return attribute.String("session.mode", mode)
}

func attrCandidateMode(mode string) attribute.KeyValue {
	return attribute.String("candidate.mode", mode)
}

func attrReason(reason string) attribute.KeyValue {
	return attribute.String("halt.reason", reason)
}
